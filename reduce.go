package dbassist

import "io"

// Reduce drains a stream to its terminal result. Intermediate events
// (start, token, structured_output) are consumed and discarded; only the
// done payload is returned. A producer error event, a transport failure,
// or a clean close without a terminal event all surface as the error the
// stream reports. Reduce does not close the stream; that stays with the
// caller that opened it.
func Reduce(s Stream) (SubmissionResult, error) {
	for {
		_, err := s.Next()
		if err == io.EOF {
			return s.Result()
		}
		if err != nil {
			return SubmissionResult{}, err
		}
	}
}
