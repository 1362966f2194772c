package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/analysis"
	"github.com/spigell/interview-analyzer/internal/jobdesc"
	"github.com/spigell/interview-analyzer/internal/llm"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/store"
	"github.com/spigell/interview-analyzer/internal/transcript"
)

const multipartMemory = 8 << 20

type analyzeMockRequest struct {
	MockTranscript     string `json:"mockTranscript"`
	JobDescriptionText string `json:"jobDescriptionText"`
}

type analyzeRequest struct {
	InterviewID         string `json:"interviewId"`
	HRTranscript        string `json:"hrTranscript"`
	CandidateTranscript string `json:"candidateTranscript"`
	JobDescription      string `json:"jobDescription"`
	CandidateID         string `json:"candidateId"`
	HRID                string `json:"hrId"`
}

type analyzeResponse struct {
	Success  bool   `json:"success"`
	ReportID string `json:"reportId"`
}

type idealAnswerRequest struct {
	Question       string `json:"question"`
	JobDescription string `json:"jobDescription"`
}

type idealAnswerResponse struct {
	Question    string `json:"question"`
	IdealAnswer string `json:"idealAnswer"`
}

type scoreAnswerRequest struct {
	Question        string `json:"question"`
	CandidateAnswer string `json:"candidateAnswer"`
	IdealAnswer     string `json:"idealAnswer"`
	JobDescription  string `json:"jobDescription"`
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleAnalyzeMock(w http.ResponseWriter, r *http.Request) {
	var req analyzeMockRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	jd, err := mockJobDescription(r, req.JobDescriptionText)
	if err != nil {
		s.fail(w, err)
		return
	}

	hr, candidate := transcript.Segment(req.MockTranscript)
	s.logger.Info("mock transcript segmented",
		zap.Int("hr_chars", len(hr)),
		zap.Int("candidate_chars", len(candidate)),
		zap.Int("job_description_chars", len(jd)),
	)

	report, err := s.pipeline.Analyze(r.Context(), analysis.Input{
		InterviewID:         analysis.NewAdHocInterviewID(),
		HRTranscript:        hr,
		CandidateTranscript: candidate,
		JobDescription:      jd,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// mockJobDescription prefers an uploaded jobDescription file over the text field.
func mockJobDescription(r *http.Request, text string) (string, error) {
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["jobDescription"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				return "", fmt.Errorf("open job description upload: %w", err)
			}
			defer f.Close()

			data, err := io.ReadAll(f)
			if err != nil {
				return "", fmt.Errorf("read job description upload: %w", err)
			}

			jd, err := jobdesc.FromBytes(files[0].Filename, data)
			if err != nil {
				return "", err
			}
			if jd == "" {
				return "", fmt.Errorf("%w: job description cannot be empty", analysis.ErrInvalidInput)
			}
			return jd, nil
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: job description is required (file or text)", analysis.ErrInvalidInput)
	}
	return text, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if strings.TrimSpace(req.InterviewID) == "" {
		s.fail(w, fmt.Errorf("%w: interviewId is required", analysis.ErrInvalidInput))
		return
	}

	ctx := r.Context()
	report, err := s.pipeline.Analyze(ctx, analysis.Input{
		InterviewID:         req.InterviewID,
		HRTranscript:        req.HRTranscript,
		CandidateTranscript: req.CandidateTranscript,
		JobDescription:      req.JobDescription,
		CandidateID:         req.CandidateID,
		HRID:                req.HRID,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	if err := s.store.Save(ctx, report); err != nil {
		s.fail(w, fmt.Errorf("save report: %w", err))
		return
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			logger.WithInterview(s.logger, report.InterviewID, report.CandidateID).
				Warn("report saved but event was not published", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Success: true, ReportID: report.InterviewID})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.Get(r.Context(), r.PathValue("interviewId"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleIdealAnswer(w http.ResponseWriter, r *http.Request) {
	var req idealAnswerRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.fail(w, fmt.Errorf("%w: question is required", analysis.ErrInvalidInput))
		return
	}

	ideal, err := s.pipeline.IdealAnswer(r.Context(), req.Question, req.JobDescription)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, idealAnswerResponse{Question: req.Question, IdealAnswer: ideal})
}

func (s *Server) handleScoreAnswer(w http.ResponseWriter, r *http.Request) {
	var req scoreAnswerRequest
	if err := decodeRequest(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.fail(w, fmt.Errorf("%w: question is required", analysis.ErrInvalidInput))
		return
	}

	score, err := s.pipeline.ScoreAnswer(r.Context(), req.Question, req.CandidateAnswer, req.IdealAnswer, req.JobDescription)
	if err != nil {
		s.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis.ScoredQA{
		Question:        req.Question,
		CandidateAnswer: req.CandidateAnswer,
		IdealAnswer:     req.IdealAnswer,
		Score:           score.Value,
		Justification:   score.Justification,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Store: s.storeName})
}

// decodeRequest reads a JSON body, or form fields named like the JSON tags of dst.
func decodeRequest(r *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: malformed json body: %v", analysis.ErrInvalidInput, err)
		}
		return nil
	}

	fields := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(fields); err != nil {
		return fmt.Errorf("%w: %v", analysis.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, analysis.ErrInvalidInput),
		errors.Is(err, jobdesc.ErrUnsupportedFormat),
		errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, llm.ErrCall):
		return http.StatusBadGateway, "llm_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, code, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
