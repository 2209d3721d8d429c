// Package pipeline drives the per-group extraction state machine: load and
// concatenate, resolve a sender, route, overlay email metadata, and yield
// deduplicated canonical records one group at a time.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/seyi-ajayi/invoice-tracker/internal/common"
	"github.com/seyi-ajayi/invoice-tracker/internal/entity"
	"github.com/seyi-ajayi/invoice-tracker/internal/grouper"
	"github.com/seyi-ajayi/invoice-tracker/internal/loader"
)

// HandleFunc receives each yielded record together with its group key and
// source files. The caller commits the record to the sink (and archives the
// files) before the next group starts; a non-nil error stops the run.
type HandleFunc func(rec *entity.InvoiceRecord, groupKey string, paths []string) error

// Processor is the orchestrator for a directory of invoice groups.
type Processor struct {
	router *Router
	log    *slog.Logger
}

func NewProcessor(router *Router, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{router: router, log: logger}
}

// ProcessGroup runs one group through load -> route -> metadata overlay and
// returns the canonical record, or nil when the group was skipped (empty
// content or no extraction path produced a record).
func (p *Processor) ProcessGroup(ctx context.Context, paths []string) *entity.InvoiceRecord {
	content := loader.CombineContent(paths, p.log)
	if strings.TrimSpace(content) == "" {
		p.log.Warn("pipeline.group.no_content", "files", len(paths))
		return nil
	}

	var md entity.EmailMetadata
	if txt := textArtifact(paths); txt != "" {
		md = loader.ParseEmailHeaders(txt)
	} else {
		// No header dump means the router cannot make its primary decision;
		// fall back to a synthetic sender recovered from the filenames.
		p.log.Warn("pipeline.group.no_email_context")
		md.SenderEmail = vendorHintFromFilenames(paths)
	}

	rec := p.router.Route(ctx, md.SenderEmail, content)
	if rec == nil {
		return nil
	}

	// Metadata wins over anything the extraction path set: thread and
	// received-time identity come from the email header, not document text.
	if md.ThreadID != "" {
		rec.MailThreadID = md.ThreadID
	}
	if md.ReceivedTime != "" {
		rec.MailReceivedTime = md.ReceivedTime
	}
	if rec.CompanyName == "" {
		rec.CompanyName = companyFromSender(md.SenderEmail)
	}
	return rec
}

// ProcessAll drives every group in dir through the pipeline in deterministic
// order. skipIDs is caller-owned dedup state: read here, grown by the caller
// after each successful commit, never mutated by the processor. Cancellation
// is honored between groups only.
func (p *Processor) ProcessAll(ctx context.Context, dir string, skipIDs map[string]struct{}, handle HandleFunc) error {
	groups, err := grouper.GroupFiles(dir)
	if err != nil {
		return common.WrapError(err, "scan invoice dir")
	}

	for _, key := range grouper.SortedKeys(groups) {
		if err := ctx.Err(); err != nil {
			return err
		}
		paths := groups[key]
		p.log.Info("pipeline.group.start", "group", key, "files", len(paths))

		rec := p.ProcessGroup(ctx, paths)
		if rec == nil {
			continue
		}

		// An empty thread id is never deduplicable: the record is always new.
		if rec.MailThreadID != "" {
			if _, dup := skipIDs[rec.MailThreadID]; dup {
				p.log.Info("pipeline.group.skip_duplicate", "group", key, "thread_id", rec.MailThreadID)
				continue
			}
		}

		p.log.Info("pipeline.group.ok",
			"group", key,
			"company", rec.CompanyName,
			"total", rec.TotalPrice,
			"thread_id", rec.MailThreadID,
		)
		if handle != nil {
			if err := handle(rec, key, paths); err != nil {
				return err
			}
		}
	}
	return nil
}

// textArtifact returns the first .txt path in the group, or "".
func textArtifact(paths []string) string {
	for _, p := range paths {
		if strings.HasSuffix(strings.ToLower(p), ".txt") {
			return p
		}
	}
	return ""
}

// vendorHintFromFilenames recovers a synthetic sender address from filename
// substrings as a last resort when the group has no email header dump.
func vendorHintFromFilenames(paths []string) string {
	sender := ""
	for _, p := range paths {
		name := strings.ToLower(filepath.Base(p))
		if strings.Contains(name, "mcmaster") {
			sender = "order@mcmaster.com"
		} else if strings.Contains(name, "homedepot") || strings.Contains(name, "home depot") {
			sender = "orders@homedepot.com"
		}
	}
	return sender
}

// companyFromSender backfills a display name from the sender's domain when the
// extraction path left company_name blank.
func companyFromSender(senderEmail string) string {
	if senderEmail == "" || !strings.Contains(senderEmail, "@") {
		return ""
	}
	domain := strings.SplitN(senderEmail, "@", 2)[1]
	label := strings.SplitN(domain, ".", 2)[0]
	return titleCase(label)
}

func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
