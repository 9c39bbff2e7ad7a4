package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/emersion/go-imap/v2"

	"autopilot-engine/internal/config"
	"autopilot-engine/internal/events"
	"autopilot-engine/internal/secrets"
	"autopilot-engine/internal/store"
)

// RunOnce polls the mailbox once: every unseen alert email is parsed, its
// jobs become pending targets, and the email is marked seen whether or not
// it yielded anything new. Returns the number of targets created.
func RunOnce(ctx context.Context, db *sql.DB, cfg config.Config, hub *events.Hub) (added int, err error) {
	if !cfg.Email.Enabled {
		return 0, nil
	}
	if cfg.Email.IMAPHost == "" || cfg.Email.Username == "" {
		return 0, errors.New("email enabled but missing imap_host/username")
	}

	password, err := secrets.Get(secrets.IMAPAccount(cfg.Email.Username, cfg.Email.IMAPHost))
	if err != nil {
		return 0, fmt.Errorf("imap password: %w", err)
	}

	port := cfg.Email.IMAPPort
	if port == 0 {
		port = 993
	}
	addr := fmt.Sprintf("%s:%d", cfg.Email.IMAPHost, port)

	c, err := Dial(ctx, addr, cfg.Email.Username, password)
	if err != nil {
		return 0, err
	}
	defer LogoutAndClose(c)

	if err := SelectMailbox(c, cfg.Email.Mailbox); err != nil {
		return 0, err
	}

	msgs, err := FetchUnseen(ctx, c, 50)
	if err != nil {
		return 0, err
	}

	added, processed, err := importMessages(ctx, db, hub, msgs, cfg.Email.SubjectAny)
	if err != nil {
		return added, err
	}

	if err := MarkSeen(c, processed); err != nil {
		return added, err
	}
	if added > 0 {
		log.Printf("[ingest] created %d targets from %d alert emails", added, len(processed))
	}
	return added, nil
}

// importMessages walks one fetched batch. Every message whose handling
// finished lands in processed so it gets marked seen, including the
// subject-filtered ones; leaving those unseen would refill the bounded
// unseen window on every poll until new alerts no longer fit.
func importMessages(ctx context.Context, db *sql.DB, hub *events.Hub, msgs []Message, subjectAny []string) (added int, processed []imap.UID, err error) {
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return added, processed, err
		}
		if !subjectMatches(m.Subject, subjectAny) {
			processed = append(processed, m.UID)
			continue
		}

		n, err := importMessage(ctx, db, hub, m)
		if err != nil {
			log.Printf("[ingest] message %d: %v", m.UID, err)
			continue
		}
		added += n
		processed = append(processed, m.UID)
	}
	return added, processed, nil
}

func importMessage(ctx context.Context, db *sql.DB, hub *events.Hub, m Message) (int, error) {
	html := htmlBody(m.RawMessage)
	if html == "" {
		return 0, errors.New("no html part")
	}
	jobs, err := ParseAlertHTML(html)
	if err != nil {
		return 0, fmt.Errorf("parse alert: %w", err)
	}

	added := 0
	for _, j := range jobs {
		ok, err := store.InsertTargetIgnore(ctx, db, store.TargetInsert{
			Company:    j.Company,
			Department: DepartmentForTitle(j.Title),
			JobTitle:   j.Title,
			SourceID:   j.SourceID,
		})
		if err != nil {
			return added, err
		}
		if !ok {
			continue
		}
		added++
		if hub != nil {
			hub.Publish(events.MakeEvent("", events.TypeTargetCreated, 1, map[string]string{
				"company":   j.Company,
				"job_title": j.Title,
			}))
		}
	}
	return added, nil
}

// subjectMatches passes everything when no filters are configured.
func subjectMatches(subject string, any []string) bool {
	if len(any) == 0 {
		return true
	}
	s := strings.ToLower(subject)
	for _, want := range any {
		if strings.Contains(s, strings.ToLower(want)) {
			return true
		}
	}
	return false
}
