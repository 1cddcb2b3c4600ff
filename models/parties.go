package models

type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Parties is the fixed ballot of the 2026 election survey.
var Parties = []Party{
	{ID: "likud", Name: "הליכוד"},
	{ID: "yesh-atid", Name: "יש עתיד"},
	{ID: "state-camp", Name: "המחנה הממלכתי"},
	{ID: "shas", Name: `ש"ס`},
	{ID: "united-torah-judaism", Name: "יהדות התורה"},
	{ID: "religious-zionism", Name: "הציונות הדתית"},
	{ID: "otzma-yehudit", Name: "עוצמה יהודית"},
	{ID: "yisrael-beytenu", Name: "ישראל ביתנו"},
	{ID: "labor", Name: "העבודה"},
	{ID: "meretz", Name: "מרצ"},
	{ID: "raam", Name: `רע"ם`},
	{ID: "hadash-taal", Name: `חד"ש-תע"ל`},
	{ID: "balad", Name: `בל"ד`},
	{ID: "no-vote", Name: "לא מצביע/ה"},
	{ID: "other", Name: "אחר"},
}

// PartyIDs returns the party ids in ballot order.
func PartyIDs() []string {
	ids := make([]string, len(Parties))
	for i, p := range Parties {
		ids[i] = p.ID
	}
	return ids
}

// ElectionSurvey is the survey seeded under ElectionSurveyID.
func ElectionSurvey() Survey {
	return Survey{
		ID:          ElectionSurveyID,
		Title:       "סקר בחירות 2026",
		Description: "למי תצביעו בבחירות הקרובות?",
		Questions: []Question{
			{
				Question: "איזו מפלגה תקבל את קולך?",
				Type:     QuestionMultiple,
				Options:  PartyIDs(),
			},
		},
	}
}
