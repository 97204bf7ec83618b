// Command consistency_check scans the live database for records that violate
// the cross-table invariants the API maintains: duplicate job references,
// dangling clearance links and document pools that drifted from the entity
// columns mirroring them. Intended for manual runs against staging after a
// data import.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type finding struct {
	Check  string
	JobRef int
	Detail string
}

func main() {
	var (
		dsn     string
		envFile string
		timeout time.Duration
	)

	flag.StringVar(&dsn, "dsn", "", "Postgres DSN (falls back to DATABASE_URL)")
	flag.StringVar(&envFile, "env", ".env", "Env file to load when -dsn is empty")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall run timeout")
	flag.Parse()

	if dsn == "" {
		_ = godotenv.Load(envFile)
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("no DSN provided: set -dsn or DATABASE_URL")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var findings []finding
	for _, check := range []func(context.Context, *sqlx.DB) ([]finding, error){
		duplicateJobRefs,
		danglingClearanceLinks,
		orphanedDerivedClearances,
		driftedDocumentPools,
		divergedLinkedDocuments,
	} {
		results, err := check(ctx, db)
		if err != nil {
			log.Fatalf("check failed: %v", err)
		}
		findings = append(findings, results...)
	}

	printReport(findings)
	if len(findings) > 0 {
		os.Exit(1)
	}
}

// duplicateJobRefs finds job references used by more than one record across
// the three entity tables. References must be unique globally, not per table.
func duplicateJobRefs(ctx context.Context, db *sqlx.DB) ([]finding, error) {
	const query = `
SELECT job_ref, COUNT(*) AS uses FROM (
	SELECT job_ref FROM import_shipments
	UNION ALL
	SELECT job_ref FROM export_shipments
	UNION ALL
	SELECT job_ref FROM custom_clearances
) refs
GROUP BY job_ref
HAVING COUNT(*) > 1`

	var rows []struct {
		JobRef int `db:"job_ref"`
		Uses   int `db:"uses"`
	}
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("duplicate job refs: %w", err)
	}

	var out []finding
	for _, row := range rows {
		out = append(out, finding{
			Check:  "duplicate-job-ref",
			JobRef: row.JobRef,
			Detail: fmt.Sprintf("used by %d records", row.Uses),
		})
	}
	return out, nil
}

// danglingClearanceLinks finds shipments whose linked_clearance_id points at a
// clearance that no longer exists.
func danglingClearanceLinks(ctx context.Context, db *sqlx.DB) ([]finding, error) {
	const query = `
SELECT s.job_ref, s.linked_clearance_id FROM %s s
LEFT JOIN custom_clearances c ON c.id = s.linked_clearance_id
WHERE s.linked_clearance_id IS NOT NULL AND c.id IS NULL`

	var out []finding
	for _, table := range []string{"import_shipments", "export_shipments"} {
		var rows []struct {
			JobRef            int    `db:"job_ref"`
			LinkedClearanceID string `db:"linked_clearance_id"`
		}
		if err := db.SelectContext(ctx, &rows, fmt.Sprintf(query, table)); err != nil {
			return nil, fmt.Errorf("dangling links in %s: %w", table, err)
		}
		for _, row := range rows {
			out = append(out, finding{
				Check:  "dangling-clearance-link",
				JobRef: row.JobRef,
				Detail: fmt.Sprintf("%s links missing clearance %s", table, row.LinkedClearanceID),
			})
		}
	}
	return out, nil
}

// orphanedDerivedClearances finds derived clearances whose source shipment is
// gone or no longer points back at them.
func orphanedDerivedClearances(ctx context.Context, db *sqlx.DB) ([]finding, error) {
	const query = `
SELECT c.job_ref, c.id FROM custom_clearances c
LEFT JOIN %s s ON s.id = c.created_from_id AND s.linked_clearance_id = c.id
WHERE c.created_from_type = $1 AND s.id IS NULL`

	tables := map[string]string{
		"import": "import_shipments",
		"export": "export_shipments",
	}

	var out []finding
	for fromType, table := range tables {
		var rows []struct {
			JobRef int    `db:"job_ref"`
			ID     string `db:"id"`
		}
		if err := db.SelectContext(ctx, &rows, fmt.Sprintf(query, table), fromType); err != nil {
			return nil, fmt.Errorf("orphaned clearances from %s: %w", fromType, err)
		}
		for _, row := range rows {
			out = append(out, finding{
				Check:  "orphaned-derived-clearance",
				JobRef: row.JobRef,
				Detail: fmt.Sprintf("clearance %s derived from %s has no backlink", row.ID, fromType),
			})
		}
	}
	return out, nil
}

// driftedDocumentPools compares each job file group against the document
// column of the record owning that job reference. Linked records are skipped
// here: a sync on one side overwrites the counterpart's column by id, so the
// counterpart's own group lags until its next sync. Comparison is set-based
// on file keys; ordering differences are not drift.
func driftedDocumentPools(ctx context.Context, db *sqlx.DB) ([]finding, error) {
	const query = `
SELECT g.job_ref, g.documents AS pool, e.documents AS mirrored, e.source FROM job_file_groups g
JOIN (
	SELECT job_ref, attachments AS documents, 'import_shipments' AS source FROM import_shipments WHERE linked_clearance_id IS NULL
	UNION ALL
	SELECT job_ref, attachments AS documents, 'export_shipments' AS source FROM export_shipments WHERE linked_clearance_id IS NULL
	UNION ALL
	SELECT job_ref, transport_documents AS documents, 'custom_clearances' AS source FROM custom_clearances WHERE created_from_id IS NULL
) e ON e.job_ref = g.job_ref`

	var rows []struct {
		JobRef   int    `db:"job_ref"`
		Pool     []byte `db:"pool"`
		Mirrored []byte `db:"mirrored"`
		Source   string `db:"source"`
	}
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("drifted document pools: %w", err)
	}

	var out []finding
	for _, row := range rows {
		if !sameDocumentSet(row.Pool, row.Mirrored) {
			out = append(out, finding{
				Check:  "drifted-document-pool",
				JobRef: row.JobRef,
				Detail: fmt.Sprintf("%s documents differ from the job file group", row.Source),
			})
		}
	}
	return out, nil
}

// divergedLinkedDocuments compares the document columns across each linked
// shipment/clearance pair. Syncs overwrite both sides in one transaction, so
// the two lists must always agree.
func divergedLinkedDocuments(ctx context.Context, db *sqlx.DB) ([]finding, error) {
	const query = `
SELECT s.job_ref, s.attachments AS shipment_docs, c.transport_documents AS clearance_docs FROM %s s
JOIN custom_clearances c ON c.id = s.linked_clearance_id`

	var out []finding
	for _, table := range []string{"import_shipments", "export_shipments"} {
		var rows []struct {
			JobRef        int    `db:"job_ref"`
			ShipmentDocs  []byte `db:"shipment_docs"`
			ClearanceDocs []byte `db:"clearance_docs"`
		}
		if err := db.SelectContext(ctx, &rows, fmt.Sprintf(query, table)); err != nil {
			return nil, fmt.Errorf("diverged linked documents in %s: %w", table, err)
		}
		for _, row := range rows {
			if !sameDocumentSet(row.ShipmentDocs, row.ClearanceDocs) {
				out = append(out, finding{
					Check:  "diverged-linked-documents",
					JobRef: row.JobRef,
					Detail: fmt.Sprintf("%s documents differ from the linked clearance", table),
				})
			}
		}
	}
	return out, nil
}

func sameDocumentSet(a, b []byte) bool {
	return keySet(a) == keySet(b)
}

// keySet reduces a JSON document list to a canonical fingerprint of its file
// keys. Unparseable payloads fingerprint as themselves so they still compare.
func keySet(data []byte) string {
	var docs []struct {
		FileName string `json:"file_name"`
		Key      string `json:"key"`
	}
	if err := json.Unmarshal(data, &docs); err != nil {
		return string(data)
	}
	keys := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		key := doc.Key
		if key == "" {
			key = doc.FileName
		}
		keys[key] = struct{}{}
	}
	fingerprint, _ := json.Marshal(keys)
	return string(fingerprint)
}

func printReport(findings []finding) {
	fmt.Println("Consistency Report")
	fmt.Println("==================")
	if len(findings) == 0 {
		fmt.Println("No violations found")
		return
	}
	for _, f := range findings {
		fmt.Printf("[%s] job_ref=%d %s\n", f.Check, f.JobRef, f.Detail)
	}
	fmt.Printf("Total violations: %d\n", len(findings))
}
