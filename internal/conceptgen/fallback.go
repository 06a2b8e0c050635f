package conceptgen

import "fmt"

// Fallback is the explanation served when no model is available.
func Fallback(term string) *Definition {
	return &Definition{
		Term:   term,
		Easy:   fmt.Sprintf("%s is a scientific concept. It is interesting.", term),
		Medium: fmt.Sprintf("%s is an important concept in science. It helps us understand the world. It is studied widely. It has many applications.", term),
		Hard: fmt.Sprintf("%s is a complex concept studied by scientists. It involves intricate mechanisms and theories. "+
			"Research is ongoing in this field. It has significant implications. Advanced studies explore its properties. "+
			"It connects to other fundamental laws.", term),
		Examples:     []string{"Study of " + term, "Application of " + term},
		RelatedWords: []string{"Science", "Theory", "Hypothesis", "Experiment", "Research"},
		Source:       SourceFallback,
	}
}
