package repository

import (
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/okian/judgeboard/internal/domain/model"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=judge dbname=judgeboard sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestUpsertScoreClause(t *testing.T) {
	db := dryRunDB(t)
	row := scoreRow{ID: "id", ProjectID: "p1", JudgeID: "j1", TrackID: "t1", Scores: scoresColumn{"tech": model.Number(8)}}
	stmt := upsertScoreClause(db.Session(&gorm.Session{DryRun: true})).Create(&row).Statement
	sql := stmt.SQL.String()

	for _, want := range []string{
		`INSERT INTO "project_scores"`,
		`ON CONFLICT ("project_id","judge_id","track_id") DO UPDATE SET`,
		`"scores"="excluded"."scores"`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("expected %q in %s", want, sql)
		}
	}
}

func TestTriggerNotifiesChannel(t *testing.T) {
	if !strings.Contains(triggerStatements[0], "pg_notify('"+NotifyChannel+"'") {
		t.Errorf("trigger does not notify %s", NotifyChannel)
	}
}

func TestJSONBColumns(t *testing.T) {
	in := scoresColumn{"tech": model.Number(7.5), "decision": model.Text("pass")}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out scoresColumn
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out["tech"].Float() != 7.5 || out["decision"].String() != "pass" {
		t.Errorf("round trip lost values: %+v", out)
	}
	if err := out.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
	if err := out.Scan(nil); err != nil || out != nil {
		t.Errorf("expected nil scores from NULL, got %v, %v", out, err)
	}

	if err := out.Scan([]byte(`{"tech": 8, "flag": true, "note": null}`)); err != nil {
		t.Fatalf("scan of a bag with a boolean entry: %v", err)
	}
	if out["tech"].Float() != 8 {
		t.Errorf("valid entry lost next to a boolean: %+v", out)
	}
	if out["flag"].Valid() || out["flag"].String() != "true" || !out["note"].IsNull() {
		t.Errorf("unexpected non-scalar entries: %+v", out)
	}

	var c criteriaColumn
	if err := c.Scan(`{"name":"Main","criteria":[{"id":"tech","name":"Tech","weight":2}]}`); err != nil {
		t.Fatalf("scan criteria: %v", err)
	}
	if c.Name != "Main" || len(c.Criteria) != 1 || c.Criteria[0].EffectiveWeight() != 2 {
		t.Errorf("unexpected criteria %+v", c)
	}
}
