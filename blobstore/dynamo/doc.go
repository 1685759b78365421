// Package dynamo provides a blobstore.Store implementation backed by a
// DynamoDB table, for fleets that coordinate without an object bucket.
//
// Table schema:
//   - Partition key: base_uri (string) - logical store scope
//   - Sort key: name (string) - document name
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name vecfleet-docs \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=name,AttributeType=S \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=name,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamo
