package orbyt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orbyt "github.com/orbyt-io/orbyt"
)

func TestRedact_SensitiveKeySubstringsCaseInsensitive(t *testing.T) {
	in := map[string]any{
		"Password":       "hunter2",
		"db_secret_name": "prod-db",
		"API_KEY":        "abc123",
		"AccessToken":    "tok",
		"sshPrivateKey":  "-----BEGIN",
		"creditCard":     "4111",
		"customer_ssn":   "000-00-0000",
		"name":           "deploy",
	}
	out := orbyt.Redact(in)
	for _, k := range []string{"Password", "db_secret_name", "API_KEY", "AccessToken", "sshPrivateKey", "creditCard", "customer_ssn"} {
		assert.Equal(t, orbyt.RedactedPlaceholder, out[k], "key %s", k)
	}
	assert.Equal(t, "deploy", out["name"])
}

func TestRedact_RecursesThroughNestedMapsAndLists(t *testing.T) {
	in := map[string]any{
		"env": map[string]any{
			"DB_PASSWORD": "x",
			"REGION":      "eu-west-1",
		},
		"steps": []any{
			map[string]any{"with": map[string]any{"apiKey": "x", "url": "https://example.com"}},
			"plain",
		},
	}
	out := orbyt.Redact(in)

	env := out["env"].(map[string]any)
	assert.Equal(t, orbyt.RedactedPlaceholder, env["DB_PASSWORD"])
	assert.Equal(t, "eu-west-1", env["REGION"])

	with := out["steps"].([]any)[0].(map[string]any)["with"].(map[string]any)
	assert.Equal(t, orbyt.RedactedPlaceholder, with["apiKey"])
	assert.Equal(t, "https://example.com", with["url"])
	assert.Equal(t, "plain", out["steps"].([]any)[1])
}

func TestRedact_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"token": "original", "nested": map[string]any{"secret": "s"}}
	_ = orbyt.Redact(in)
	assert.Equal(t, "original", in["token"])
	assert.Equal(t, "s", in["nested"].(map[string]any)["secret"])
}

func TestRedact_NilMap(t *testing.T) {
	require.Nil(t, orbyt.Redact(nil))
}

func TestSensitiveKey(t *testing.T) {
	assert.True(t, orbyt.SensitiveKey("GITHUB_TOKEN"))
	assert.True(t, orbyt.SensitiveKey("apikey"))
	assert.False(t, orbyt.SensitiveKey("timeout"))
}
