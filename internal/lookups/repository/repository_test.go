package repository

import (
	"strings"
	"testing"
)

func normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func TestMutationsOnlyTouchPendingRows(t *testing.T) {
	for name, query := range map[string]string{
		"advance":       advanceLookupQuery,
		"expire before": expireBeforeQuery,
		"expire one":    expireOneQuery,
	} {
		if !strings.Contains(normalize(query), "status = any(") {
			t.Errorf("%s query must be conditional on a pending status", name)
		}
	}
}

func TestSweepComparesUpdatedAtStrictly(t *testing.T) {
	q := normalize(expireBeforeQuery)
	for _, fragment := range []string{"updated_at < $2", "for update skip locked", "limit $3"} {
		if !strings.Contains(q, fragment) {
			t.Errorf("expire query missing %q", fragment)
		}
	}
}

func TestReadsAreTenantScoped(t *testing.T) {
	for name, query := range map[string]string{
		"get":         getLookupQuery,
		"callback":    lockForCallbackQuery,
		"transitions": listTransitionsQuery,
	} {
		if !strings.Contains(normalize(query), "organization_id = $1") {
			t.Errorf("%s query must filter by organization", name)
		}
	}
}

func TestCallbackLocksTheRow(t *testing.T) {
	q := normalize(lockForCallbackQuery)
	if !strings.HasSuffix(q, "for update") {
		t.Errorf("callback lookup must lock the row, got %q", q)
	}
	if !strings.Contains(q, "external_request_id = $2 and subject_identifier = $3") {
		t.Errorf("callback lookup must match the unique key")
	}
}
