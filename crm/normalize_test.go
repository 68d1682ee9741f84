package crm

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(body string) *Payload {
	return &Payload{StatusCode: http.StatusOK, Body: json.RawMessage(body)}
}

func TestNormalizeNoData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "object marker",
			body: `{"nodata":{"code":"4422","message":"There is no data to show"},"uri":"/crm/private/json/Contacts/searchRecords"}`,
		},
		{
			name: "boolean marker",
			body: `{"nodata":true}`,
		},
		{
			name: "string marker",
			body: `{"nodata":"4422"}`,
		},
		{
			name: "numeric marker",
			body: `{"nodata":4422}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Normalize("Contacts", payload(tt.body))
			require.NoError(t, err)
			assert.Equal(t, ResultEmpty, result.Kind)
			assert.NotNil(t, result.All())
			assert.Empty(t, result.All())
			assert.Equal(t, Record{}, result.First())
		})
	}
}

func TestNormalizeFalsyNoDataIsIgnored(t *testing.T) {
	result, err := Normalize("Contacts", payload(`{"nodata":false,"error":null,"result":{"Contacts":{"row":{"FL":{"val":"Email","content":"a@b.c"}}}}}`))
	require.NoError(t, err)
	assert.Equal(t, ResultSingle, result.Kind)
	assert.Equal(t, Record{"Email": "a@b.c"}, result.First())
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{
			name:    "string code",
			body:    `{"error":{"code":"4834","message":"Invalid Ticket Id"}}`,
			code:    "4834",
			message: "Invalid Ticket Id",
		},
		{
			name:    "numeric code",
			body:    `{"error":{"code":4600,"message":"Unable to process your request"}}`,
			code:    "4600",
			message: "Unable to process your request",
		},
		{
			name:    "string marker",
			body:    `{"error":"Invalid Ticket Id"}`,
			message: "Invalid Ticket Id",
		},
		{
			name:    "boolean marker",
			body:    `{"error":true}`,
			message: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize("Accounts", payload(tt.body))
			require.Error(t, err)

			remote, ok := AsRemoteError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, remote.Code)
			assert.Equal(t, tt.message, remote.Message)
		})
	}
}

func TestNormalizeErrorTakesPrecedence(t *testing.T) {
	_, err := Normalize("Accounts", payload(`{"error":{"code":"4500","message":"boom"},"nodata":{"code":"4422"}}`))
	assert.True(t, IsRemoteError(err))
}

func TestNormalizeFlatten(t *testing.T) {
	t.Run("field list", func(t *testing.T) {
		result, err := Normalize("Accounts", payload(`{"result":{"Accounts":{"row":{"no":"1","FL":[
			{"val":"A","content":"1"},
			{"val":"B","content":"2"}
		]}}}}`))
		require.NoError(t, err)
		assert.Equal(t, ResultSingle, result.Kind)
		assert.Equal(t, Record{"A": "1", "B": "2"}, result.First())
	})

	t.Run("duplicate names resolve to last occurrence", func(t *testing.T) {
		result, err := Normalize("Accounts", payload(`{"result":{"Accounts":{"row":{"FL":[
			{"val":"A","content":"first"},
			{"val":"B","content":"2"},
			{"val":"A","content":"last"}
		]}}}}`))
		require.NoError(t, err)
		assert.Equal(t, Record{"A": "last", "B": "2"}, result.First())
	})

	t.Run("scalar contents", func(t *testing.T) {
		result, err := Normalize("Deals", payload(`{"result":{"Deals":{"row":{"FL":[
			{"val":"Amount","content":1500.5},
			{"val":"Closed","content":false},
			{"val":"Owner","content":null}
		]}}}}`))
		require.NoError(t, err)
		assert.Equal(t, Record{"Amount": "1500.5", "Closed": "false", "Owner": ""}, result.First())
	})

	t.Run("single field object", func(t *testing.T) {
		result, err := Normalize("Accounts", payload(`{"result":{"Accounts":{"row":{"FL":{"val":"ACCOUNTID","content":"42"}}}}}`))
		require.NoError(t, err)
		assert.Equal(t, Record{"ACCOUNTID": "42"}, result.First())
	})
}

func TestNormalizeShapeIndependence(t *testing.T) {
	single, err := Normalize("Contacts", payload(`{"result":{"Contacts":{"row":{"no":"1","FL":[{"val":"Email","content":"a@b.c"}]}}}}`))
	require.NoError(t, err)

	array, err := Normalize("Contacts", payload(`{"result":{"Contacts":{"row":[{"no":"1","FL":[{"val":"Email","content":"a@b.c"}]}]}}}`))
	require.NoError(t, err)

	assert.Equal(t, ResultSingle, single.Kind)
	assert.Equal(t, ResultMultiple, array.Kind)
	assert.Equal(t, single.All(), array.All())
}

func TestNormalizeMultiple(t *testing.T) {
	result, err := Normalize("Contacts", payload(`{"result":{"Contacts":{"row":[
		{"no":"1","FL":[{"val":"First Name","content":"John"}]},
		{"no":"2","FL":[{"val":"First Name","content":"Jane"}]}
	]}}}`))
	require.NoError(t, err)
	assert.Equal(t, ResultMultiple, result.Kind)
	assert.Equal(t, []Record{{"First Name": "John"}, {"First Name": "Jane"}}, result.All())
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing result", `{"uri":"/x"}`},
		{"other collection", `{"result":{"Leads":{"row":{"FL":[]}}}}`},
		{"missing row", `{"result":{"Contacts":{}}}`},
		{"not an object", `"oops"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize("Contacts", payload(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}
}

func TestNormalizeURITooLong(t *testing.T) {
	_, err := Normalize("Contacts", &Payload{StatusCode: http.StatusRequestURITooLong, Text: "<html>414</html>"})
	require.Error(t, err)
	assert.True(t, IsURITooLong(err))

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusRequestURITooLong, transportErr.StatusCode)
	assert.Equal(t, "<html>414</html>", transportErr.Body)
}

func TestNormalizeInsert(t *testing.T) {
	result, err := normalizeInsert(payload(`{"result":{"message":"Record(s) added successfully","recorddetail":{"FL":[
		{"val":"Id","content":"2515239000000120044"},
		{"val":"Created By","content":"Jared"}
	]}},"uri":"/crm/private/json/Contacts/insertRecords"}`))
	require.NoError(t, err)
	assert.Equal(t, "Record(s) added successfully", result.Message)
	assert.Equal(t, []Record{{"Id": "2515239000000120044", "Created By": "Jared"}}, result.Details)

	_, err = normalizeInsert(payload(`{"error":{"code":"4401","message":"Unable to populate data"}}`))
	assert.True(t, IsRemoteError(err))
}

func TestResultKindString(t *testing.T) {
	assert.Equal(t, "empty", ResultEmpty.String())
	assert.Equal(t, "single", ResultSingle.String())
	assert.Equal(t, "multiple", ResultMultiple.String())
	assert.Equal(t, "unknown", ResultKind(9).String())
}
