package confirm

import (
	"log"

	"github.com/google/uuid"
)

// Sender delivers confirmation codes to an identity over an external
// channel (email, SMS). Implementations return a provider request id for
// correlation; delivery itself is asynchronous and best-effort.
type Sender interface {
	Send(template string, params map[string]string, destination string) (reqID string, err error)
}

// LogSender is the development sender: it prints the code instead of
// delivering it. Production wires a real messaging client here.
type LogSender struct{}

func (LogSender) Send(template string, params map[string]string, destination string) (string, error) {
	reqID := uuid.NewString()
	log.Printf("[confirm] %s -> %s code=%s req=%s", template, destination, params["code"], reqID)
	return reqID, nil
}
