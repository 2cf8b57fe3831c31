package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"db-sync/internal/schema"
)

func TestExcluded_ExplicitNames(t *testing.T) {
	excl := schema.NewExclusions([]string{"audit_log", "sessions"}, nil)

	assert.True(t, schema.Excluded("audit_log", excl))
	assert.True(t, schema.Excluded("sessions", excl))
	assert.False(t, schema.Excluded("users", excl))
}

func TestExcluded_PrefixPatterns(t *testing.T) {
	excl := schema.NewExclusions(nil, []string{"tmp_", "bak_"})

	assert.True(t, schema.Excluded("tmp_import", excl))
	assert.True(t, schema.Excluded("bak_users", excl))
	assert.False(t, schema.Excluded("users_tmp_", excl), "patterns are prefixes, not substrings")
}

func TestExcluded_CopyRuleAlwaysApplies(t *testing.T) {
	// The copy rule holds with no configuration at all.
	excl := schema.NewExclusions(nil, nil)

	assert.True(t, schema.Excluded("users_copy", excl))
	assert.True(t, schema.Excluded("Copy_of_orders", excl))
	assert.True(t, schema.Excluded("orders_COPY_2", excl))
	assert.False(t, schema.Excluded("coupons", excl))
}

func TestExcluded_CopyPatternIsNotAPrefix(t *testing.T) {
	// Listing "copy" as a pattern must not turn it into a prefix rule;
	// it stays the built-in substring rule.
	excl := schema.NewExclusions(nil, []string{"copy"})

	assert.True(t, schema.Excluded("users_copy", excl))
	assert.True(t, schema.Excluded("copy_users", excl))
	assert.False(t, schema.Excluded("users", excl))
}
