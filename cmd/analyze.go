package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-analyzer/internal/analysis"
	"github.com/spigell/interview-analyzer/internal/jobdesc"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/transcript"
)

const (
	PromptHRSummary        = "Show HR summary"
	PromptCandidateSummary = "Show candidate summary"
	PromptBreakdown        = "Show Q&A breakdown"
	PromptReportToFile     = "Dump report to file"
	PromptExit             = "Exit"

	formatJSON = "json"
	formatYAML = "yaml"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptHRSummary, PromptCandidateSummary, PromptBreakdown, PromptReportToFile, PromptExit},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a transcript file against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("transcript", "t", "", "transcript file with HR:/Candidate: prefixed lines")
	analyzeCmd.Flags().String("job-description", "", "job description file (txt, md, pdf or html)")
	analyzeCmd.Flags().String("job-description-text", "", "job description as text")
	analyzeCmd.Flags().String("interview-id", "", "interview id (default is a generated mock id)")
	analyzeCmd.Flags().String("candidate-id", "", "candidate id")
	analyzeCmd.Flags().String("hr-id", "", "hr id")
	analyzeCmd.Flags().StringP("output", "o", "", "write the report to this file")
	analyzeCmd.Flags().StringP("format", "f", formatJSON, "report format: json or yaml")
	analyzeCmd.Flags().Bool("save", false, "save the report to the configured store and publish it")
	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "do not open the interactive menu")

	analyzeCmd.MarkFlagRequired("transcript")
	analyzeCmd.MarkFlagsMutuallyExclusive("job-description", "job-description-text")
	analyzeCmd.MarkFlagsOneRequired("job-description", "job-description-text")
}

func analyze(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	format, _ := cmd.Flags().GetString("format")
	if err := validateFormat(format); err != nil {
		logger.Fatal("checking flags", zap.Error(err))
	}

	logger.Info("starting the interview-analyzer", zap.String("version", version))

	in, err := inputFromFlags(cmd)
	if err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}

	rt, err := newRuntime(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the analyzer", zap.Error(err))
	}
	defer rt.Close()

	report, err := rt.analyzer.Analyze(ctx, in)
	if err != nil {
		logger.Fatal("analyzing the interview", zap.Error(err))
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := rt.persist(ctx, report, logger); err != nil {
			logger.Fatal("persisting the report", zap.Error(err))
		}
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := writeReport(report, output, format); err != nil {
			logger.Fatal("writing the report", zap.Error(err))
		}
		logger.Info("report written", zap.String("file", output))
	}

	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove {
		data, err := encodeReport(report, format)
		if err != nil {
			logger.Fatal("encoding the report", zap.Error(err))
		}
		fmt.Println(string(data))
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, report, format, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("menu action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func inputFromFlags(cmd *cobra.Command) (analysis.Input, error) {
	transcriptFile, _ := cmd.Flags().GetString("transcript")
	raw, err := os.ReadFile(transcriptFile)
	if err != nil {
		return analysis.Input{}, fmt.Errorf("reading transcript: %w", err)
	}

	jd, _ := cmd.Flags().GetString("job-description-text")
	if file, _ := cmd.Flags().GetString("job-description"); file != "" {
		if jd, err = jobdesc.FromFile(file); err != nil {
			return analysis.Input{}, err
		}
	}

	hr, candidate := transcript.Segment(string(raw))

	interviewID, _ := cmd.Flags().GetString("interview-id")
	candidateID, _ := cmd.Flags().GetString("candidate-id")
	hrID, _ := cmd.Flags().GetString("hr-id")

	return analysis.Input{
		InterviewID:         interviewID,
		HRTranscript:        hr,
		CandidateTranscript: candidate,
		JobDescription:      jd,
		CandidateID:         candidateID,
		HRID:                hrID,
	}, nil
}

func handleAction(action string, report *analysis.Report, format string, logger *zap.Logger) error {
	switch action {
	case PromptHRSummary:
		fmt.Printf("\nOverall score: %.2f/100\n\n%s\n\n", report.OverallScore, report.AISummaryHR)
	case PromptCandidateSummary:
		fmt.Printf("\n%s\n\n", report.AISummaryCandidate)
	case PromptBreakdown:
		fmt.Println(renderBreakdown(report.QABreakdown))
	case PromptReportToFile:
		filePrompt := promptui.Prompt{
			Label:   "File",
			Default: report.InterviewID + "." + format,
		}

		file, err := filePrompt.Run()
		if err != nil {
			return err
		}
		if err := writeReport(report, file, format); err != nil {
			return err
		}
		logger.Info("report written", zap.String("file", file))
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

func renderBreakdown(breakdown []analysis.ScoredQA) string {
	if len(breakdown) == 0 {
		return "\nNo question/answer pairs were found.\n"
	}

	var b strings.Builder
	for i, qa := range breakdown {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, qa.Question)
		fmt.Fprintf(&b, "   Answer: %s\n", qa.CandidateAnswer)
		fmt.Fprintf(&b, "   Ideal:  %s\n", qa.IdealAnswer)
		fmt.Fprintf(&b, "   Score:  %d/10 (%s)\n", qa.Score, qa.Justification)
	}
	return b.String()
}

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported report format %q (use json or yaml)", format)
	}
}

func encodeReport(report *analysis.Report, format string) ([]byte, error) {
	if format == formatYAML {
		return yaml.Marshal(report)
	}
	return json.MarshalIndent(report, "", "  ")
}

func writeReport(report *analysis.Report, file, format string) error {
	data, err := encodeReport(report, format)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}
