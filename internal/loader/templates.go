package loader

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/territory-cli/internal/model"
)

// templateFile is the YAML shape for weekly availability templates:
//
//	templates:
//	  - rep_id: r1
//	    days:
//	      monday: [10am, 2pm]
//	      thursday: [7pm]
type templateFile struct {
	Templates []templateEntry `yaml:"templates"`
}

type templateEntry struct {
	RepID string              `yaml:"rep_id"`
	Days  map[string][]string `yaml:"days"`
}

// ImportTemplates reads a YAML template file and upserts a weekly
// template per rep. Unknown weekday names or slot labels abort the
// import.
func (l *Loader) ImportTemplates(ctx context.Context, r io.Reader) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read template file")
	}

	var file templateFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrap(err, "loader: parse template yaml")
	}

	res := &ImportResult{}
	for _, entry := range file.Templates {
		if entry.RepID == "" {
			return nil, eris.New("loader: template entry missing rep_id")
		}

		tpl := model.WeeklyTemplate{
			RepID: entry.RepID,
			Days:  make(map[time.Weekday][]model.TimeSlot, len(entry.Days)),
		}
		for dayName, slots := range entry.Days {
			wd, err := parseWeekday(dayName)
			if err != nil {
				return nil, eris.Wrapf(err, "loader: template %s", entry.RepID)
			}
			for _, s := range slots {
				slot, err := model.ParseTimeSlot(s)
				if err != nil {
					return nil, eris.Wrapf(err, "loader: template %s %s", entry.RepID, dayName)
				}
				tpl.Days[wd] = append(tpl.Days[wd], slot)
			}
		}

		if err := l.store.UpsertTemplate(ctx, tpl); err != nil {
			return nil, eris.Wrapf(err, "loader: upsert template %s", entry.RepID)
		}
		res.Imported++
	}
	return res, nil
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, eris.Errorf("loader: unknown weekday %q", name)
	}
	return wd, nil
}
