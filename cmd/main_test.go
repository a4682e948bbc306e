package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `{
	"classes": {"Admin": "User"},
	"resources": [
		{
			"name": "widgets",
			"table": "widgets",
			"columns": ["id", "name", "owner_id", "created_at"],
			"default_sort": "created_at",
			"filters": {
				"owners": {"type": "references", "field": "owner_id", "class_name": "User"},
				"created": {"type": "timestamp", "field": "created_at"}
			}
		}
	]
}`

func writeTestFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	resources := filepath.Join(dir, "resources.json")
	require.NoError(t, os.WriteFile(resources, []byte(testCatalog), 0o600))

	cfg := map[string]interface{}{
		"project_name": "flquery-test",
		"data_source":  map[string]interface{}{"dns": "sqlite://" + filepath.Join(dir, "unused.db")},
		"server":       map[string]interface{}{"secret_key": "s3cret"},
		"filter":       map[string]interface{}{"resources_file": resources},
		"notification": map[string]interface{}{
			"slack": map[string]interface{}{"webhook_url": "https://hooks.slack.test/services/T0/B0/hook"},
		},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	configFile := filepath.Join(dir, "flquery.json")
	require.NoError(t, os.WriteFile(configFile, data, 0o600))
	return configFile
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cli := NewCLI()
	var out bytes.Buffer
	cli.cmd.SetOut(&out)
	cli.cmd.SetIn(strings.NewReader(stdin))
	cli.cmd.SetArgs(args)
	err := cli.cmd.Execute()
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	configFile := writeTestFiles(t)
	specFile := filepath.Join(filepath.Dir(configFile), "spec.json")
	require.NoError(t, os.WriteFile(specFile, []byte(`{"owners": {"only": [1, "Admin/2", "Order/3"]}}`), 0o600))

	out, err := runCLI(t, "", "--config", configFile, "generate", "--resource", "widgets", "--spec", specFile, "--dialect", "postgres")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "(owner_id IN (:p1))", result["clause"])
	assert.Equal(t, map[string]interface{}{"p1": []interface{}{float64(1), float64(2)}}, result["parameters"])
	assert.Equal(t, "(owner_id = ANY($1))", result["sql"])
	assert.Equal(t, []interface{}{[]interface{}{float64(1), float64(2)}}, result["args"])
}

func TestGenerateCommand_Stdin(t *testing.T) {
	configFile := writeTestFiles(t)

	out, err := runCLI(t, `{"created": {"between": ["2024-02-01", "2024-01-01"]}}`,
		"--config", configFile, "generate", "--resource", "widgets", "--dialect", "sqlite")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "(created_at BETWEEN :p1 AND :p2)", result["clause"])
	assert.Equal(t, "(created_at BETWEEN ? AND ?)", result["sql"])
	args := result["args"].([]interface{})
	require.Len(t, args, 2)
	assert.True(t, strings.HasPrefix(args[0].(string), "2024-01-01"))
}

func TestGenerateCommand_Errors(t *testing.T) {
	configFile := writeTestFiles(t)

	t.Run("unknown resource", func(t *testing.T) {
		_, err := runCLI(t, `{}`, "--config", configFile, "generate", "--resource", "gadgets")
		assert.Error(t, err)
	})

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := runCLI(t, `{}`, "--config", configFile, "generate", "--resource", "widgets", "--dialect", "oracle")
		assert.Error(t, err)
	})

	t.Run("malformed specification", func(t *testing.T) {
		_, err := runCLI(t, `[1, 2]`, "--config", configFile, "generate", "--resource", "widgets")
		assert.Error(t, err)
	})

	t.Run("missing resource flag", func(t *testing.T) {
		_, err := runCLI(t, `{}`, "--config", configFile, "generate")
		assert.Error(t, err)
	})
}

func TestConfigCommand(t *testing.T) {
	configFile := writeTestFiles(t)

	out, err := runCLI(t, "", "--config", configFile, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "flquery-test")
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "hooks.slack.test")
}
