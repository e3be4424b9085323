package kintone_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/worktimer/internal/kintone"
	"github.com/fakeyudi/worktimer/internal/record"
)

func samplePayload() record.Payload {
	return record.Payload{
		StartTimestamp:   "09:00:00",
		StopTimestamp:    "10:30:00",
		ElapsedFormatted: "01:30",
		Description:      "code review",
		Notes:            "PR 12",
		ProjectName:      "Apollo",
		ProjectNumber:    "42",
	}
}

func TestNewRequestShape(t *testing.T) {
	// 23:30 in UTC-9 is already the next day in UTC.
	date := time.Date(2024, 4, 1, 23, 30, 0, 0, time.FixedZone("X", -9*3600))
	req := kintone.NewRequest("17", kintone.User{Code: "u1", Name: "Yu"}, samplePayload(), date)

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "17", got["app"])

	rec := got["record"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "DATE", "value": "2024-04-02"}, rec["日付"])
	assert.Equal(t, map[string]any{"type": "NUMBER", "value": "42"}, rec["プロジェクトNo"])
	assert.Equal(t, map[string]any{"type": "SINGLE_LINE_TEXT", "value": "Apollo"}, rec["プロジェクト名"])
	user := map[string]any{"code": "u1", "name": "Yu"}
	assert.Equal(t, map[string]any{"type": "CREATOR", "value": user}, rec["作成者"])
	assert.Equal(t, map[string]any{"type": "MODIFIER", "value": user}, rec["更新者"])

	table := rec["Table"].(map[string]any)
	assert.Equal(t, "SUBTABLE", table["type"])
	rows := table["value"].([]any)
	require.Len(t, rows, 1)
	cells := rows[0].(map[string]any)["value"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "SINGLE_LINE_TEXT", "value": "PR 12"}, cells["備考"])
	assert.Equal(t, map[string]any{"type": "TIME", "value": "09:00:00"}, cells["開始時刻"])
	assert.Equal(t, map[string]any{"type": "CALC", "value": "01:30"}, cells["作業時間"])
	assert.Equal(t, map[string]any{"type": "SINGLE_LINE_TEXT", "value": "code review"}, cells["作業内容"])
	assert.Equal(t, map[string]any{"type": "TIME", "value": "10:30:00"}, cells["終了時刻"])
}

func TestPostSendsHeadersAndBody(t *testing.T) {
	var (
		gotToken, gotType, gotMethod string
		gotBody                      kintone.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotToken = r.Header.Get("X-Cybozu-API-Token")
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"id":"101","revision":"1"}`))
	}))
	defer srv.Close()

	c := &kintone.Client{BaseURL: srv.URL, Token: "secret", ContentType: "application/json"}
	req := kintone.NewRequest("17", kintone.User{Code: "u1"}, samplePayload(), time.Now())
	res, err := c.Post(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "17", gotBody.App)
	assert.Equal(t, "101", res.ID)
	assert.Equal(t, "1", res.Revision)
}

func TestPostOmitsUnsetHeaders(t *testing.T) {
	var hasToken bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasToken = r.Header["X-Cybozu-Api-Token"]
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	res, err := (&kintone.Client{BaseURL: srv.URL}).Post(context.Background(), kintone.Request{App: "1"})
	require.NoError(t, err)
	assert.False(t, hasToken)
	assert.Equal(t, "1", res.ID)
}

func TestPostAcceptsDoubleEncodedSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"{\"id\":\"55\",\"revision\":\"2\"}"`))
	}))
	defer srv.Close()

	res, err := (&kintone.Client{BaseURL: srv.URL}).Post(context.Background(), kintone.Request{App: "1"})
	require.NoError(t, err)
	assert.Equal(t, "55", res.ID)
	assert.Equal(t, "2", res.Revision)
}

func TestPostExtractsFieldErrors(t *testing.T) {
	details := `{"code":"CB_VA01","message":"入力内容が正しくありません。","errors":{"record.日付.value":{"messages":["日付の形式が不正です。"]},"record.プロジェクトNo.value":{"messages":["数字でなければなりません。","必須です。"]}}}`
	body, err := json.Marshal(map[string]string{"details": details})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	_, err = (&kintone.Client{BaseURL: srv.URL}).Post(context.Background(), kintone.Request{App: "1"})
	var apiErr *kintone.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "CB_VA01", apiErr.Code)
	assert.Equal(t, []kintone.FieldMessage{
		{Field: "record.プロジェクトNo.value", Message: "数字でなければなりません。"},
		{Field: "record.プロジェクトNo.value", Message: "必須です。"},
		{Field: "record.日付.value", Message: "日付の形式が不正です。"},
	}, apiErr.Messages)
	assert.Contains(t, apiErr.Error(), "Field: record.日付.value, Message: 日付の形式が不正です。")
}

func TestPostAcceptsObjectDetailsAndPlainErrors(t *testing.T) {
	for name, body := range map[string]string{
		"object details": `{"details":{"errors":{"app":{"messages":["required"]}}}}`,
		"top level":      `{"code":"CB_VA01","errors":{"app":{"messages":["required"]}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := (&kintone.Client{BaseURL: srv.URL}).Post(context.Background(), kintone.Request{})
			var apiErr *kintone.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, []kintone.FieldMessage{{Field: "app", Message: "required"}}, apiErr.Messages)
		})
	}
}

func TestPostNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := (&kintone.Client{BaseURL: srv.URL}).Post(context.Background(), kintone.Request{})
	var apiErr *kintone.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "record store error (status 502): bad gateway", apiErr.Error())
}

func TestPostTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := (&kintone.Client{BaseURL: url}).Post(context.Background(), kintone.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post record")
	var apiErr *kintone.APIError
	assert.False(t, errors.As(err, &apiErr))
}
