package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/service"
)

// questionFile is the YAML layout read by seed
type questionFile struct {
	Questions []service.QuestionInput `yaml:"questions"`
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load questions into the catalog",
	Long: `Creates every question listed in a YAML file. Without --file the
built-in default question set is written.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file with a questions list")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	inputs := defaultInputs()
	if seedFile != "" {
		loaded, err := loadQuestionFile(seedFile)
		if err != nil {
			return err
		}
		inputs = loaded
	}

	for _, in := range inputs {
		q, err := svc.AdminService.CreateQuestion(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("create question %q: %w", in.Text, err)
		}
		cmd.Printf("created %s (%s)\n", q.ID, q.Type)
	}
	cmd.Printf("Seeded %d questions.\n", len(inputs))
	return nil
}

func loadQuestionFile(path string) ([]service.QuestionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f questionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Questions) == 0 {
		return nil, errors.New("no questions in file")
	}
	return f.Questions, nil
}

func defaultInputs() []service.QuestionInput {
	defaults := model.DefaultQuestions()
	inputs := make([]service.QuestionInput, 0, len(defaults))
	for _, q := range defaults {
		inputs = append(inputs, service.QuestionInput{
			ID:        q.ID,
			Text:      q.Text,
			Type:      q.Type,
			Required:  q.Required,
			Order:     q.Order,
			ScaleMax:  q.ScaleMax,
			MaxLength: q.MaxLength,
		})
	}
	return inputs
}
