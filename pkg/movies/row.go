package movies

// Row is the flat, column-per-field form of a Record used by the output
// files and the store. Fields a variant does not carry are left empty.
type Row struct {
	ID                 int
	FullTitle          string
	FullYear           string
	Title              string
	TitleYear          string
	Category           Category
	Years              []int
	YearOpenEnd        bool
	IsEpisode          bool
	EpisodeName        string
	EpisodeSeason      string
	EpisodeEpisode     string
	EpisodeParentTitle string
	Suspended          bool
}

// Flatten converts rec into its flat Row form.
func Flatten(rec Record) Row {
	switch r := rec.(type) {
	case *Suspended:
		return Row{ID: r.ID, FullTitle: r.FullTitle, FullYear: r.FullYear, Suspended: true}
	case *Movie:
		row := Row{
			ID:          r.ID,
			FullTitle:   r.FullTitle,
			FullYear:    r.FullYear,
			Title:       r.Title,
			TitleYear:   r.TitleYear,
			Category:    r.Category,
			Years:       r.Years,
			YearOpenEnd: r.YearOpenEnd,
		}
		if ep := r.Episode; ep != nil {
			row.IsEpisode = true
			row.EpisodeName = ep.Name
			row.EpisodeSeason = ep.Season
			row.EpisodeEpisode = ep.Number
			row.EpisodeParentTitle = ep.ParentTitle
		}
		return row
	}
	return Row{}
}
