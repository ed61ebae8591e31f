package media

import (
	"context"
	"time"
)

// UploadObserver records the outcome of each stored object.
type UploadObserver interface {
	ObserveUpload(driver, result string, size int, took time.Duration)
}

type instrumented struct {
	next   Store
	driver string
	obs    UploadObserver
}

// Instrument reports every Put on next to obs, labelled with driver.
func Instrument(next Store, driver string, obs UploadObserver) Store {
	if obs == nil {
		return next
	}
	return &instrumented{next: next, driver: driver, obs: obs}
}

func (s *instrumented) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	start := time.Now()
	ref, err := s.next.Put(ctx, key, contentType, data)

	result := "ok"
	if err != nil {
		result = "error"
	}
	s.obs.ObserveUpload(s.driver, result, len(data), time.Since(start))

	return ref, err
}
