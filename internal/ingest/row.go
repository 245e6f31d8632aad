package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/albapepper/hoopstats/internal/model"
	"github.com/albapepper/hoopstats/internal/query"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// gamedate accepts any layout query.ParseTime understands.
	err := v.RegisterValidation("gamedate", func(fl validator.FieldLevel) bool {
		_, ok := query.ParseTime(fl.Field().String())
		return ok
	})
	if err != nil {
		panic(fmt.Sprintf("ingest: register gamedate validation: %v", err))
	}
	return v
}

// Row is one CSV record, trimmed but not yet coerced. Stats holds the raw
// numeric cells keyed by lower-cased column name.
type Row struct {
	Line     int
	Player   string `validate:"required"`
	Team     string `validate:"required"`
	Date     string `validate:"required,gamedate"`
	Position string
	League   string
	Stats    map[string]string
}

// statField binds a CSV column to the StatLine field it fills.
type statField struct {
	column   string
	required bool
	set      func(*model.StatLine, *float64)
}

var statFields = []statField{
	{"points", true, func(l *model.StatLine, v *float64) { l.Points = v }},
	{"assists", true, func(l *model.StatLine, v *float64) { l.Assists = v }},
	{"rebounds", true, func(l *model.StatLine, v *float64) { l.Rebounds = v }},
	{"fga", true, func(l *model.StatLine, v *float64) { l.FGA = v }},
	{"fgm", true, func(l *model.StatLine, v *float64) { l.FGM = v }},
	{"tpa", true, func(l *model.StatLine, v *float64) { l.TPA = v }},
	{"tpm", true, func(l *model.StatLine, v *float64) { l.TPM = v }},
	{"fta", true, func(l *model.StatLine, v *float64) { l.FTA = v }},
	{"ftm", true, func(l *model.StatLine, v *float64) { l.FTM = v }},
	{"turnovers", true, func(l *model.StatLine, v *float64) { l.Turnovers = v }},
	{"minutes", true, func(l *model.StatLine, v *float64) { l.Minutes = v }},
	{"steals", false, func(l *model.StatLine, v *float64) { l.Steals = v }},
	{"blocks", false, func(l *model.StatLine, v *float64) { l.Blocks = v }},
	{"plusminus", false, func(l *model.StatLine, v *float64) { l.PlusMinus = v }},
}

// Validate checks the identity columns of the row.
func (r Row) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "gamedate":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a recognized date", field, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// GameDate is the parsed Date column. Call after Validate.
func (r Row) GameDate() time.Time {
	t, _ := query.ParseTime(r.Date)
	return t
}

// StatLine coerces the numeric cells. Player and game ids are left for the
// caller to fill in.
func (r Row) StatLine() model.StatLine {
	var line model.StatLine
	for _, f := range statFields {
		raw, ok := r.Stats[f.column]
		switch {
		case ok:
			f.set(&line, ParseStat(raw))
		case f.column == "plusminus":
			f.set(&line, model.Float(0))
		case f.required:
			f.set(&line, model.Float(0))
		}
	}
	return line
}

// ParseStat coerces one numeric cell: blank reads as 0, anything that is not
// a finite number reads as absent.
func ParseStat(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.Float(0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return model.Float(f)
}
