package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
)

type fakeExtractor struct {
	rec   *entity.InvoiceRecord
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) (*entity.InvoiceRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

const knownVendorEmail = `Sender Email: orders@homedepot.com
Gmail Thread ID: thread_42
Date: Mon, 15 Jan 2024 10:30:00 -0500
Subject: Your order confirmation
----------
The Home Depot
Order #WD12345678
Order Date: 01/15/2024
Total: $84.11
`

const unknownVendorEmail = `Sender Email: billing@acmesupply.com
Gmail Thread ID: thread_77
Date: Tue, 16 Jan 2024 09:00:00 -0500
Subject: Invoice 1001
----------
Acme Supply invoice body
`

func writeGroup(t *testing.T, dir, name, content string) []string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return []string{p}
}

func TestProcessGroupVendorPath(t *testing.T) {
	dir := t.TempDir()
	paths := writeGroup(t, dir, "hd_1705329000000.txt", knownVendorEmail)

	fake := &fakeExtractor{rec: entity.NewInvoiceRecord()}
	p := NewProcessor(NewRouter(fake, nil), nil)

	rec := p.ProcessGroup(context.Background(), paths)
	require.NotNil(t, rec)
	assert.Equal(t, "The Home Depot", rec.CompanyName)
	assert.Equal(t, "thread_42", rec.MailThreadID)
	assert.Equal(t, "Mon, 15 Jan 2024 10:30:00 -0500", rec.MailReceivedTime)
	assert.Zero(t, fake.calls, "known vendor must not reach the model")
}

func TestProcessGroupModelPath(t *testing.T) {
	dir := t.TempDir()
	paths := writeGroup(t, dir, "acme_1705329000000.txt", unknownVendorEmail)

	fromModel := entity.NewInvoiceRecord()
	fromModel.CompanyName = "Acme Supply"
	fromModel.TotalPrice = "10.00"
	fake := &fakeExtractor{rec: fromModel}
	p := NewProcessor(NewRouter(fake, nil), nil)

	rec := p.ProcessGroup(context.Background(), paths)
	require.NotNil(t, rec)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "Acme Supply", rec.CompanyName)
	assert.Equal(t, "thread_77", rec.MailThreadID)
}

func TestProcessGroupMetadataWinsOverModel(t *testing.T) {
	dir := t.TempDir()
	paths := writeGroup(t, dir, "acme_1705329000000.txt", unknownVendorEmail)

	fromModel := entity.NewInvoiceRecord()
	fromModel.MailThreadID = "hallucinated"
	fromModel.MailReceivedTime = "also hallucinated"
	p := NewProcessor(NewRouter(&fakeExtractor{rec: fromModel}, nil), nil)

	rec := p.ProcessGroup(context.Background(), paths)
	require.NotNil(t, rec)
	assert.Equal(t, "thread_77", rec.MailThreadID)
	assert.Equal(t, "Tue, 16 Jan 2024 09:00:00 -0500", rec.MailReceivedTime)
}

func TestProcessGroupCompanyBackfillFromSender(t *testing.T) {
	dir := t.TempDir()
	paths := writeGroup(t, dir, "acme_1705329000000.txt", unknownVendorEmail)

	p := NewProcessor(NewRouter(&fakeExtractor{rec: entity.NewInvoiceRecord()}, nil), nil)

	rec := p.ProcessGroup(context.Background(), paths)
	require.NotNil(t, rec)
	assert.Equal(t, "Acmesupply", rec.CompanyName)
}

func TestProcessGroupEmptyContentSkipped(t *testing.T) {
	dir := t.TempDir()
	paths := writeGroup(t, dir, "blank_1705329000000.txt", "   \n\t\n")

	p := NewProcessor(NewRouter(&fakeExtractor{}, nil), nil)
	assert.Nil(t, p.ProcessGroup(context.Background(), paths))
}

func TestProcessGroupExtractorErrorYieldsNil(t *testing.T) {
	dir := t.TempDir()
	paths := writeGroup(t, dir, "acme_1705329000000.txt", unknownVendorEmail)

	p := NewProcessor(NewRouter(&fakeExtractor{err: errors.New("model offline")}, nil), nil)
	assert.Nil(t, p.ProcessGroup(context.Background(), paths))
}

func TestProcessAllSkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir, "hd_1705329000000.txt", knownVendorEmail)

	p := NewProcessor(NewRouter(nil, nil), nil)
	skip := map[string]struct{}{}

	var yielded []*entity.InvoiceRecord
	handle := func(rec *entity.InvoiceRecord, key string, paths []string) error {
		yielded = append(yielded, rec)
		skip[rec.MailThreadID] = struct{}{}
		return nil
	}

	require.NoError(t, p.ProcessAll(context.Background(), dir, skip, handle))
	require.Len(t, yielded, 1)
	assert.Equal(t, "thread_42", yielded[0].MailThreadID)

	// Second pass over the same directory: the thread id is now in the
	// skip set, so nothing new is yielded.
	require.NoError(t, p.ProcessAll(context.Background(), dir, skip, handle))
	assert.Len(t, yielded, 1)
}

func TestProcessAllEmptyThreadIDNeverDeduplicated(t *testing.T) {
	dir := t.TempDir()
	noThread := `Sender Email: orders@homedepot.com
Date: Mon, 15 Jan 2024 10:30:00 -0500
----------
The Home Depot
Total: $10.00
`
	writeGroup(t, dir, "hd_1705329000000.txt", noThread)

	p := NewProcessor(NewRouter(nil, nil), nil)
	skip := map[string]struct{}{"": {}}

	count := 0
	handle := func(rec *entity.InvoiceRecord, key string, paths []string) error {
		count++
		return nil
	}

	require.NoError(t, p.ProcessAll(context.Background(), dir, skip, handle))
	require.NoError(t, p.ProcessAll(context.Background(), dir, skip, handle))
	assert.Equal(t, 2, count)
}

func TestProcessAllHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir, "hd_1705329000000.txt", knownVendorEmail)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(NewRouter(nil, nil), nil)
	err := p.ProcessAll(ctx, dir, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessAllMissingDirYieldsNothing(t *testing.T) {
	p := NewProcessor(NewRouter(nil, nil), nil)
	err := p.ProcessAll(context.Background(), filepath.Join(t.TempDir(), "nope"), nil,
		func(rec *entity.InvoiceRecord, key string, paths []string) error {
			t.Fatal("unexpected record")
			return nil
		})
	assert.NoError(t, err)
}

func TestProcessAllHandleErrorStopsRun(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir, "hd_1705329000000.txt", knownVendorEmail)

	p := NewProcessor(NewRouter(nil, nil), nil)
	boom := errors.New("sink unavailable")
	err := p.ProcessAll(context.Background(), dir, nil,
		func(rec *entity.InvoiceRecord, key string, paths []string) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestVendorHintFromFilenames(t *testing.T) {
	assert.Equal(t, "order@mcmaster.com",
		vendorHintFromFilenames([]string{"/x/mcmaster_order_1705329000000.pdf"}))
	assert.Equal(t, "orders@homedepot.com",
		vendorHintFromFilenames([]string{"/x/homedepot_receipt_1705329000000.pdf"}))
	assert.Empty(t, vendorHintFromFilenames([]string{"/x/unknown_1705329000000.pdf"}))
}

func TestCompanyFromSender(t *testing.T) {
	assert.Equal(t, "Homedepot", companyFromSender("orders@homedepot.com"))
	assert.Equal(t, "Acme-Supply", companyFromSender("a@acme-supply.co.uk"))
	assert.Empty(t, companyFromSender("not-an-email"))
	assert.Empty(t, companyFromSender(""))
}
