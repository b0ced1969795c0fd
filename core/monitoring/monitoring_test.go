package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	errs []error
	tags []map[string]string
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Recover()            {}
func (r *recorder) Flush(time.Duration) {}

func TestCaptureUsesInstalledMonitor(t *testing.T) {
	rec := &recorder{}
	Init(rec)
	defer Init(nil)

	CaptureException(errors.New("boom"), AssignmentTags("M1", "P1", ""))
	assert.Len(t, rec.errs, 1)
	assert.Equal(t, map[string]string{"project_id": "M1", "pilot_id": "P1"}, rec.tags[0])
}

func TestInitNilFallsBackToNop(t *testing.T) {
	Init(nil)
	assert.NotPanics(t, func() {
		CaptureException(errors.New("ignored"), nil)
		Flush(time.Millisecond)
	})
}
