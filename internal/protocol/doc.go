// Package protocol implements the line-framed wire format spoken by the
// concept finder engine over its standard input and output.
//
// A request is a header line holding a single-character command tag and the
// number of sentences, followed by that many sentence lines:
//
//	x 2
//	The patient has diabetes.
//	No history of asthma.
//
// A response is a header line holding a line count, followed by that many
// lines. For extract each line is "<concept_id> <span_length>"; for encode
// each line is an opaque string:
//
//	2
//	C0011849 1
//	C0004096 1
//
// There is no other delimiter, so a reader must consume exactly the declared
// number of lines. The response carries no sentence boundaries: concepts from
// a multi-sentence extract request cannot be attributed to the sentence that
// produced them.
//
// Example usage:
//
//	if err := protocol.WriteRequest(stdin, protocol.Extract, sentences); err != nil {
//	    return err
//	}
//
//	r := protocol.NewReader(stdout, protocol.DefaultMaxLineSize)
//	concepts, err := r.ReadExtract()
package protocol
