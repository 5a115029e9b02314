package assistant

import (
	"log"

	"github.com/cloudwego/eino/schema"
)

// bridgeCapacity bounds the hand-off buffer between the producer goroutine
// and the consumer. The producer is never blocked by a slow consumer beyond
// this buffer; in practice depth is bounded by turn length.
const bridgeCapacity = 32

// bridge runs a blocking, push-style producer on its own goroutine and
// exposes its output as a cancellable stream.
//
// The producer receives a push callback that reports whether the consumer is
// still reading. The writer is always closed when the producer returns, so
// the consumer observes exactly one terminal io.EOF regardless of outcome; a
// producer error is forwarded in-band before close. Closing the reader
// abandons the stream: the producer is not interrupted, it finishes naturally
// and its remaining output is discarded.
func bridge(produce func(push func(delta string) bool) error) *schema.StreamReader[string] {
	sr, sw := schema.Pipe[string](bridgeCapacity)

	go func() {
		defer sw.Close()

		abandoned := false
		err := produce(func(delta string) bool {
			if abandoned {
				return false
			}
			if closed := sw.Send(delta, nil); closed {
				abandoned = true
				log.Printf("[assistant] stream abandoned by consumer, draining producer")
				return false
			}
			return true
		})

		if err != nil && !abandoned {
			sw.Send("", err)
		}
	}()

	return sr
}
