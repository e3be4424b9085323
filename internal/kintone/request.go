// Package kintone posts work records to a kintone-style record store.
package kintone

import (
	"time"

	"github.com/fakeyudi/worktimer/internal/record"
)

// Field codes of the work log app.
const (
	FieldTable         = "Table"
	FieldNotes         = "備考"
	FieldStart         = "開始時刻"
	FieldElapsed       = "作業時間"
	FieldDescription   = "作業内容"
	FieldStop          = "終了時刻"
	FieldModifier      = "更新者"
	FieldCreator       = "作成者"
	FieldProjectName   = "プロジェクト名"
	FieldProjectNumber = "プロジェクトNo"
	FieldDate          = "日付"
)

// Field is one typed value in a kintone record.
type Field struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// TableRow is one row of a SUBTABLE field.
type TableRow struct {
	Value map[string]Field `json:"value"`
}

// User identifies the creator and modifier of a record.
type User struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Request is the body of a record POST.
type Request struct {
	App    string           `json:"app"`
	Record map[string]Field `json:"record"`
}

// NewRequest lays payload out as a work log record. The DATE field is the
// UTC calendar date of date.
func NewRequest(appID string, user User, payload record.Payload, date time.Time) Request {
	row := TableRow{Value: map[string]Field{
		FieldNotes:       {Type: "SINGLE_LINE_TEXT", Value: payload.Notes},
		FieldStart:       {Type: "TIME", Value: payload.StartTimestamp},
		FieldElapsed:     {Type: "CALC", Value: payload.ElapsedFormatted},
		FieldDescription: {Type: "SINGLE_LINE_TEXT", Value: payload.Description},
		FieldStop:        {Type: "TIME", Value: payload.StopTimestamp},
	}}
	return Request{
		App: appID,
		Record: map[string]Field{
			FieldTable:         {Type: "SUBTABLE", Value: []TableRow{row}},
			FieldModifier:      {Type: "MODIFIER", Value: user},
			FieldCreator:       {Type: "CREATOR", Value: user},
			FieldProjectName:   {Type: "SINGLE_LINE_TEXT", Value: payload.ProjectName},
			FieldProjectNumber: {Type: "NUMBER", Value: payload.ProjectNumber},
			FieldDate:          {Type: "DATE", Value: date.UTC().Format("2006-01-02")},
		},
	}
}
