// Package dispatcher serves the line-oriented dispatch protocol.
//
// A client authenticates, names a stored file and its content type, receives
// the tools applicable to that type and then asks for any number of them to
// be applied to the file:
//
//	C->S: <email>
//	C->S: <password>
//	S->C: OK | KO <reason>
//	C->S: <contentType>
//	C->S: <fileAddress>
//	S->C: <N>
//	S->C: <toolDescriptor>      (N lines)
//	C->S: <toolName>
//	S->C: <outputAddress> | KO <reason>
//
// The last exchange repeats until the client closes the connection. Every
// failure is reported as a single KO line and ends the session.
package dispatcher
