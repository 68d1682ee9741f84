// Package crm provides a client for a record-oriented CRM HTTP API.
//
// The API answers every call with a JSON document nested under a "response"
// key whose shape depends on the outcome: an error envelope, a "nodata"
// marker, a single row object, or an array of rows, each row carrying its
// fields as a list of val/content pairs. This package hides those shapes
// behind Record and []Record.
//
// # Architecture
//
//   - BuildURL: assembles the authenticated request URL for an ActionRequest
//   - Transport: performs the GET and unwraps the response envelope
//   - Normalize: classifies a payload as empty, single or multiple rows
//   - EncodeRows: serializes records into the markup the insert action expects
//   - Client: the FetchByID, FetchRelated, Search and Insert operations
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := crm.New(token, logger,
//		crm.WithTimeout(10*time.Second),
//		crm.WithDebug(true),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	contacts, err := client.Search(ctx, "Contacts", "((First Name:John)AND(Last Name:Smith))")
//
// # Error Handling
//
// Empty identifiers fail with ErrInvalidArgument before any request is made.
// Errors reported by the API are returned as *RemoteError with the API's code
// and message. Network and decoding failures are returned as *TransportError.
// A query with no matches is not an error: FetchByID returns an empty Record
// and the list operations return an empty slice.
//
//	if remote, ok := crm.AsRemoteError(err); ok {
//		log.Printf("rejected: %s", remote.Code)
//	}
package crm
