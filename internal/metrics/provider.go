package metrics

import (
	"context"

	"github.com/evanofslack/zone-update/async"
	"github.com/evanofslack/zone-update/provider"
)

type instrumented struct {
	inner   provider.Provider
	zone    string
	metrics *Metrics
}

// Wrap counts every call made through p as a dns request for zone.
func Wrap(p provider.Provider, zone string, m *Metrics) provider.Provider {
	if m == nil {
		return p
	}
	return &instrumented{inner: p, zone: zone, metrics: m}
}

func (i *instrumented) GetRecord(ctx context.Context, rtype provider.RecordType, host string) (*provider.Record, error) {
	v, err := i.inner.GetRecord(ctx, rtype, host)
	i.metrics.IncDNSRequest("read", i.zone, err == nil)
	return v, err
}

func (i *instrumented) CreateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	err := i.inner.CreateRecord(ctx, rtype, host, value)
	i.metrics.IncDNSRequest("create", i.zone, err == nil)
	return err
}

func (i *instrumented) UpdateRecord(ctx context.Context, rtype provider.RecordType, host, value string) error {
	err := i.inner.UpdateRecord(ctx, rtype, host, value)
	i.metrics.IncDNSRequest("update", i.zone, err == nil)
	return err
}

func (i *instrumented) DeleteRecord(ctx context.Context, rtype provider.RecordType, host string) error {
	err := i.inner.DeleteRecord(ctx, rtype, host)
	i.metrics.IncDNSRequest("delete", i.zone, err == nil)
	return err
}

type countingOffloader struct {
	inner   async.Offloader
	metrics *Metrics
}

// CountJobs records whether each job handed to o was admitted.
func CountJobs(o async.Offloader, m *Metrics) async.Offloader {
	if m == nil {
		return o
	}
	return &countingOffloader{inner: o, metrics: m}
}

func (c *countingOffloader) Go(ctx context.Context, job func()) error {
	err := c.inner.Go(ctx, job)
	c.metrics.IncJob(err == nil)
	return err
}
