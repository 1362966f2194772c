package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput is returned before any LLM call when the request lacks
// content the pipeline needs.
var ErrInvalidInput = errors.New("invalid analysis input")

const (
	adHocCandidateID = "mock-candidate"
	adHocHRID        = "mock-hr"
)

// QAPair is one HR question with the candidate's answer to it.
type QAPair struct {
	Question string `json:"question" yaml:"question" mapstructure:"question"`
	Answer   string `json:"answer" yaml:"answer" mapstructure:"answer"`
}

// Score is the scorer's verdict on a single answer. Value is always within [MinScore, MaxScore].
type Score struct {
	Value         int    `json:"score" yaml:"score"`
	Justification string `json:"justification" yaml:"justification"`
}

// ScoredQA is a pair with its ideal answer and score.
type ScoredQA struct {
	Question        string `json:"question" yaml:"question"`
	CandidateAnswer string `json:"candidateAnswer" yaml:"candidateAnswer"`
	IdealAnswer     string `json:"idealAnswer" yaml:"idealAnswer"`
	Score           int    `json:"score" yaml:"score"`
	Justification   string `json:"justification" yaml:"justification"`
}

// Report is the final output of one analysis run.
type Report struct {
	InterviewID        string     `json:"interviewId" yaml:"interviewId"`
	CandidateID        string     `json:"candidateId" yaml:"candidateId"`
	HRID               string     `json:"hrId" yaml:"hrId"`
	OverallScore       float64    `json:"overallScore" yaml:"overallScore"`
	AISummaryHR        string     `json:"aiSummaryHR" yaml:"aiSummaryHR"`
	AISummaryCandidate string     `json:"aiSummaryCandidate" yaml:"aiSummaryCandidate"`
	QABreakdown        []ScoredQA `json:"qaBreakdown" yaml:"qaBreakdown"`
	FullTranscript     string     `json:"fullTranscript" yaml:"fullTranscript"`
	JobDescription     string     `json:"jobDescription" yaml:"jobDescription"`
	GeneratedAt        time.Time  `json:"generatedAt" yaml:"generatedAt"`
}

// Input is everything a run needs. Transcripts are already split by speaker.
type Input struct {
	InterviewID         string
	HRTranscript        string
	CandidateTranscript string
	JobDescription      string
	CandidateID         string
	HRID                string
}

// Validate rejects requests the pipeline cannot work on.
func (in Input) Validate() error {
	if strings.TrimSpace(in.JobDescription) == "" {
		return fmt.Errorf("%w: job description is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.HRTranscript) == "" && strings.TrimSpace(in.CandidateTranscript) == "" {
		return fmt.Errorf("%w: transcript has no content", ErrInvalidInput)
	}
	return nil
}

// withDefaults fills the identifiers of ad-hoc runs.
func (in Input) withDefaults() Input {
	if strings.TrimSpace(in.InterviewID) == "" {
		in.InterviewID = NewAdHocInterviewID()
	}
	if strings.TrimSpace(in.CandidateID) == "" {
		in.CandidateID = adHocCandidateID
	}
	if strings.TrimSpace(in.HRID) == "" {
		in.HRID = adHocHRID
	}
	return in
}

// NewAdHocInterviewID returns an id for runs that are not tied to a stored interview.
func NewAdHocInterviewID() string {
	return "mock-" + uuid.NewString()
}
