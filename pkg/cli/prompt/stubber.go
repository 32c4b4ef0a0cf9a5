package prompt

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/core"
)

// AskStubber replaces SurveyAskOne with canned answers.
type AskStubber struct {
	AskOnes  []survey.Prompt
	OneCount int
	StubOnes []any
}

func InitAskStubber() (*AskStubber, func()) {
	origSurveyAskOne := SurveyAskOne
	as := AskStubber{}

	SurveyAskOne = func(p survey.Prompt, response any, _ ...survey.AskOpt) error {
		as.AskOnes = append(as.AskOnes, p)
		count := as.OneCount
		as.OneCount++
		if count >= len(as.StubOnes) {
			panic(fmt.Sprintf("more asks than stubs. most recent call: %v", p))
		}
		return core.WriteAnswer(response, "", as.StubOnes[count])
	}

	teardown := func() {
		SurveyAskOne = origSurveyAskOne
	}
	return &as, teardown
}

func (as *AskStubber) StubOne(value any) {
	as.StubOnes = append(as.StubOnes, value)
}
