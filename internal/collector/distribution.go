package collector

import (
	"github.com/nao1215/vigireport/internal/model"
)

// Distribute builds a percentage table from records. Each percentage is
// floor(100*count/total). When the total is zero the rows carry their
// counts without percentages and ErrZeroTotal is returned alongside the
// table. Only obfuscated descriptions go through translator; plain ones
// such as years and age ranges are kept as sent. A nil translator leaves
// every description untouched.
func Distribute(title, column string, records []model.Record, translator Translator) (model.Distribution, error) {
	total := 0
	for _, r := range records {
		total += r.Count
	}

	dist := model.Distribution{
		Title:       title,
		Column:      column,
		Rows:        make([]model.DistributionRow, 0, len(records)),
		Total:       total,
		Unavailable: total == 0,
	}
	for _, r := range records {
		desc := r.Description
		if r.Obfuscated && translator != nil {
			desc = translator.Translate(desc)
		}
		row := model.DistributionRow{Description: desc, Count: r.Count}
		if total != 0 {
			row.Percent = 100 * r.Count / total
			row.HasPercent = true
		}
		dist.Rows = append(dist.Rows, row)
	}

	if total == 0 {
		return dist, ErrZeroTotal
	}
	return dist, nil
}
