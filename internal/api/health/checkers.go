package health

import (
	"context"
	"fmt"
)

// Pinger is the probe surface shared by the catalog client, the relational
// sink, and the object-store backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CatalogChecker checks service catalog reachability.
type CatalogChecker struct {
	pinger Pinger
}

// NewCatalogChecker creates a catalog health checker.
func NewCatalogChecker(p Pinger) *CatalogChecker {
	return &CatalogChecker{pinger: p}
}

// Name returns the checker name.
func (c *CatalogChecker) Name() string {
	return "catalog"
}

// Check verifies the catalog is accessible.
func (c *CatalogChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("catalog not configured")
	}
	return c.pinger.Ping(ctx)
}

// SinkChecker checks the relational event sink.
type SinkChecker struct {
	pinger Pinger
}

// NewSinkChecker creates a relational sink health checker.
func NewSinkChecker(p Pinger) *SinkChecker {
	return &SinkChecker{pinger: p}
}

// Name returns the checker name.
func (c *SinkChecker) Name() string {
	return "postgrest"
}

// Check verifies the sink is accessible.
func (c *SinkChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("relational sink not configured")
	}
	return c.pinger.Ping(ctx)
}

// BucketChecker checks the object-storage archive.
type BucketChecker struct {
	pinger Pinger
}

// NewBucketChecker creates an archive bucket health checker.
func NewBucketChecker(p Pinger) *BucketChecker {
	return &BucketChecker{pinger: p}
}

// Name returns the checker name.
func (c *BucketChecker) Name() string {
	return "bucket"
}

// Check verifies the bucket is accessible.
func (c *BucketChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("object store not configured")
	}
	return c.pinger.Ping(ctx)
}
