package authlog

import (
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// Entry is one append-only audit record. Rows are never updated or deleted
// by the application.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"index" json:"user_id"`
	ClientID  string    `json:"client_id"`
	Operation string    `json:"operation"`
	Success   bool      `json:"success"`
	Level     string    `json:"level"`
	Executed  time.Time `json:"executed"`
	Message   string    `json:"message"`
}

func (Entry) TableName() string { return "app_auth.authlog" }

// Writer buffers audit entries and persists them from a background
// goroutine. Writes are best-effort: a full buffer drops the entry and a
// failed insert only logs, so auditing can never fail the operation that
// produced the event.
type Writer struct {
	db    *gorm.DB
	clock clockwork.Clock
	ch    chan Entry
	done  chan struct{}
	once  sync.Once
}

func New(d *gorm.DB, clock clockwork.Clock, buffer int) *Writer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if buffer <= 0 {
		buffer = 1024
	}
	w := &Writer{
		db:    d,
		clock: clock,
		ch:    make(chan Entry, buffer),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Log queues an entry without blocking the caller. Safe on a nil receiver,
// so components can run without auditing wired up.
func (w *Writer) Log(userID, clientID, operation string, success bool, level, message string) {
	if w == nil {
		return
	}
	e := Entry{
		UserID:    userID,
		ClientID:  clientID,
		Operation: operation,
		Success:   success,
		Level:     level,
		Executed:  w.clock.Now(),
		Message:   message,
	}
	select {
	case w.ch <- e:
	default:
		log.Printf("[authlog] buffer full, dropped %s event for user %s", operation, userID)
	}
}

func (w *Writer) run() {
	const batchSize = 64
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	batch := make([]Entry, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.db.Create(&batch).Error; err != nil {
			log.Printf("[authlog] failed to persist %d entries: %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-w.ch:
			if !ok {
				flush()
				close(w.done)
				return
			}
			batch = append(batch, e)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close flushes pending entries and stops the background writer. Safe on a
// nil receiver.
func (w *Writer) Close() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		close(w.ch)
		<-w.done
	})
}

// Recent returns the newest entries for one user, newest first.
func Recent(d *gorm.DB, userID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []Entry
	err := d.Where("user_id = ?", userID).Order("executed DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
