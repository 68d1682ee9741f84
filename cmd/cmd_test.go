package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/zcrm/config"
	"github.com/s0up4200/zcrm/crm"
	"github.com/s0up4200/zcrm/filter"
)

// fakeAPI records calls and serves canned records
type fakeAPI struct {
	mu       sync.Mutex
	records  map[string]crm.Record
	fail     map[string]error
	inFlight atomic.Int32
	peak     atomic.Int32
	inserted []crm.Record
	list     []crm.Record
}

func (f *fakeAPI) FetchByID(ctx context.Context, collection, id string) (crm.Record, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if err := f.fail[id]; err != nil {
		return nil, err
	}
	if record, ok := f.records[id]; ok {
		return record, nil
	}
	return crm.Record{}, nil
}

func (f *fakeAPI) FetchRelated(ctx context.Context, parent, id, related string) ([]crm.Record, error) {
	return f.list, nil
}

func (f *fakeAPI) Search(ctx context.Context, collection, criteria string) ([]crm.Record, error) {
	return f.list, nil
}

func (f *fakeAPI) Insert(ctx context.Context, collection string, records []crm.Record) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, records...)
	return true, nil
}

func setupTestConfig(t *testing.T) {
	t.Helper()

	prevCfg, prevLogger := cfg, logger
	cfg = &config.Config{
		CRM: config.CRMConfig{
			Scheme:    "https",
			Host:      "crm.zoho.com",
			Namespace: crm.DefaultNamespace,
			Format:    crm.DefaultFormat,
			Scope:     crm.DefaultScope,
			Timeout:   crm.DefaultTimeout,
		},
		Output: config.OutputConfig{Format: "console"},
	}
	logger = zerolog.Nop()
	t.Cleanup(func() {
		cfg, logger = prevCfg, prevLogger
		authToken, jqQuery = "", ""
	})
}

func TestFetchRecords(t *testing.T) {
	setupTestConfig(t)

	t.Run("keeps id order and blanks missing records", func(t *testing.T) {
		api := &fakeAPI{records: map[string]crm.Record{
			"1": {"Last Name": "One"},
			"3": {"Last Name": "Three"},
		}}

		records, err := fetchRecords(context.Background(), api, "Contacts", []string{"3", "2", "1"}, 2)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "Three", records[0]["Last Name"])
		assert.Empty(t, records[1])
		assert.Equal(t, "One", records[2]["Last Name"])
		assert.LessOrEqual(t, api.peak.Load(), int32(2))
	})

	t.Run("first error aborts", func(t *testing.T) {
		boom := &crm.RemoteError{Code: "4100", Message: "Unable to process your request"}
		api := &fakeAPI{fail: map[string]error{"2": boom}}

		_, err := fetchRecords(context.Background(), api, "Contacts", []string{"1", "2"}, 0)
		require.Error(t, err)
		assert.True(t, crm.IsRemoteError(err))
		assert.Equal(t, int32(1), api.peak.Load())
	})
}

func TestSuggestCollection(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Contacts", ""},
		{"contacts", "Contacts"},
		{"Contact", "Contacts"},
		{"SalesOrder", "SalesOrders"},
		{"zzzz", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, suggestCollection(tt.name))
		})
	}
}

func TestParseRecords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []crm.Record
		wantErr string
	}{
		{
			name: "yaml list",
			input: `
- First Name: Jared
  Last Name: Larson
  Email: hey@whoa.com
- Last Name: Smith
  Annual Revenue: 1500
  Opt Out: false
  Phone:
`,
			want: []crm.Record{
				{"First Name": "Jared", "Last Name": "Larson", "Email": "hey@whoa.com"},
				{"Last Name": "Smith", "Annual Revenue": "1500", "Opt Out": "false", "Phone": ""},
			},
		},
		{
			name:  "json list",
			input: `[{"Last Name": "Smith", "Description": "A&B, C"}]`,
			want:  []crm.Record{{"Last Name": "Smith", "Description": "A&B, C"}},
		},
		{
			name:  "single mapping",
			input: "Last Name: Smith\n",
			want:  []crm.Record{{"Last Name": "Smith"}},
		},
		{
			name:    "empty document",
			input:   "",
			wantErr: "no records found",
		},
		{
			name:    "empty list",
			input:   "[]",
			wantErr: "no records found",
		},
		{
			name:    "scalar document",
			input:   "hello",
			wantErr: "must be a mapping",
		},
		{
			name:    "nested value",
			input:   "- Address: {City: Oslo}\n",
			wantErr: `field "Address" must be a scalar`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecords([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadRecordsFileFromStdin(t *testing.T) {
	records, err := readRecordsFile("-", strings.NewReader(`[{"Last Name": "Smith"}]`))
	require.NoError(t, err)
	assert.Equal(t, []crm.Record{{"Last Name": "Smith"}}, records)

	_, err = readRecordsFile("/does/not/exist.yaml", nil)
	require.Error(t, err)
}

func TestApplyFilter(t *testing.T) {
	setupTestConfig(t)

	records := []crm.Record{
		{"Last Name": "Smith", "Phone": "555"},
		{"Last Name": "Jones"},
		{"Last Name": "Smith"},
	}

	got, err := applyFilter(context.Background(), nil, records)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	compiled, err := filter.CompileFilter(`Fields["Last Name"] == "Smith" && has("Phone")`)
	require.NoError(t, err)
	got, err = applyFilter(context.Background(), compiled, records)
	require.NoError(t, err)
	assert.Equal(t, []crm.Record{records[0]}, got)
}

func TestResolveFilter(t *testing.T) {
	setupTestConfig(t)
	cfg.Filter.Presets = map[string]string{"smiths": `field("Last Name") == "Smith"`}
	t.Cleanup(func() { filterExpr, preset = "", "" })

	filterExpr, preset = "", ""
	compiled, err := resolveFilter()
	require.NoError(t, err)
	assert.Nil(t, compiled)

	preset = "smiths"
	compiled, err = resolveFilter()
	require.NoError(t, err)
	assert.Equal(t, `field("Last Name") == "Smith"`, compiled.Expression())

	filterExpr = `has("Email")`
	compiled, err = resolveFilter()
	require.NoError(t, err)
	assert.Equal(t, `has("Email")`, compiled.Expression())

	filterExpr = `Fields[`
	_, err = resolveFilter()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter expression")

	filterExpr, preset = "", "missing"
	_, err = resolveFilter()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: smiths")
}

func TestRenderRecords(t *testing.T) {
	setupTestConfig(t)
	records := []crm.Record{{"Last Name": "Smith", "Email": "a@b.c"}}

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderRecords(&buf, "Contacts", records))
		assert.Contains(t, buf.String(), "Contacts (1):")
		assert.Contains(t, buf.String(), "╰── Smith")
	})

	t.Run("json with fields", func(t *testing.T) {
		cfg.Output.Format = "json"
		cfg.Output.Fields = []string{"Email"}
		t.Cleanup(func() { cfg.Output.Format, cfg.Output.Fields = "console", nil })

		var buf bytes.Buffer
		require.NoError(t, renderRecords(&buf, "Contacts", records))
		assert.JSONEq(t, `[{"Email":"a@b.c"}]`, buf.String())
	})

	t.Run("jq", func(t *testing.T) {
		cfg.Output.Format = "json"
		jqQuery = `.[0]["Last Name"]`
		t.Cleanup(func() { cfg.Output.Format = "console" })

		var buf bytes.Buffer
		require.NoError(t, renderRecords(&buf, "Contacts", records))
		assert.Equal(t, "\"Smith\"\n", buf.String())
	})
}

func TestPreviewURL(t *testing.T) {
	setupTestConfig(t)
	authToken = "secret-token"

	req := crm.ActionRequest{Collection: "Contacts", Action: crm.ActionGetRecordByID, Query: "id=1"}

	u, err := previewURL(req, false)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.zoho.com/crm/private/json/Contacts/getRecordById?wfTrigger=true&authtoken=REDACTED&scope=crmapi&id=1", u)

	u, err = previewURL(req, true)
	require.NoError(t, err)
	assert.Contains(t, u, "authtoken=secret-token&")
}

func TestPreviewURLWithoutToken(t *testing.T) {
	setupTestConfig(t)

	prev := openStore
	openStore = func(config.KeyringConfig) (*config.CredentialStore, error) {
		return nil, errors.New("no keyring in tests")
	}
	t.Cleanup(func() { openStore = prev })

	u, err := previewURL(crm.ActionRequest{Collection: "Leads", Action: crm.ActionSearchRecords, Query: "criteria=(Email:x)"}, false)
	require.NoError(t, err)
	assert.Contains(t, u, "authtoken=REDACTED&")

	_, err = previewURL(crm.ActionRequest{Collection: "Leads", Action: crm.ActionSearchRecords}, true)
	require.Error(t, err)
}

func TestRenderInsertResult(t *testing.T) {
	setupTestConfig(t)

	var buf bytes.Buffer
	result := &crm.InsertResult{
		Message: "Record(s) added successfully",
		Details: []crm.Record{{"Id": "1001", "Created By": "jared"}},
	}
	require.NoError(t, renderInsertResult(&buf, "Contacts", 1, result))
	assert.Contains(t, buf.String(), "✓ Inserted 1 row(s) into Contacts: Record(s) added successfully")
	assert.Contains(t, buf.String(), "╰── 1001")
}

func TestProjectFields(t *testing.T) {
	records := []crm.Record{{"A": "1", "B": "2"}}
	assert.Equal(t, records, projectFields(records, nil))
	assert.Equal(t, []crm.Record{{"B": "2"}}, projectFields(records, []string{"B", "C"}))
}

func TestCommandsWriteToCommandOutput(t *testing.T) {
	setupTestConfig(t)

	prev := client
	client = &fakeAPI{
		records: map[string]crm.Record{"1001": {"Last Name": "Larson"}},
		list:    []crm.Record{{"Last Name": "Smith"}},
	}
	t.Cleanup(func() { client = prev })

	tests := []struct {
		name string
		run  func(*cobra.Command, []string) error
		args []string
		want string
	}{
		{"get", runGet, []string{"Contacts", "1001"}, "╰── Larson"},
		{"related", runRelated, []string{"Accounts", "1", "Contacts"}, "╰── Smith"},
		{"search", runSearch, []string{"Contacts", "(Last Name:Smith)"}, "╰── Smith"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := &cobra.Command{}
			c.SetOut(&buf)
			c.SetContext(context.Background())

			require.NoError(t, tt.run(c, tt.args))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPreviewURLMissingTokenIsQuiet(t *testing.T) {
	setupTestConfig(t)

	var logs bytes.Buffer
	logger = zerolog.New(&logs)

	prev := openStore
	openStore = func(config.KeyringConfig) (*config.CredentialStore, error) {
		return config.NewCredentialStore(keyring.NewArrayKeyring(nil)), nil
	}
	t.Cleanup(func() { openStore = prev })

	u, err := previewURL(crm.ActionRequest{Collection: "Leads", Action: crm.ActionSearchRecords}, false)
	require.NoError(t, err)
	assert.Contains(t, u, "authtoken=REDACTED&")
	assert.Empty(t, logs.String())
}
