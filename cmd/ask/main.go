package main

import (
	"fmt"
	"intelliquery"
	"intelliquery/internal/api/models"
	"intelliquery/internal/api/service"
	"intelliquery/pkg"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "intelliquery",
		Usage: "Ask property-tax questions against the configured database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Value:   ".env",
				Usage:   "Path to the env file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Answer a natural-language question",
				ArgsUsage: "<question>",
				Action:    ask,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "show-sql",
						Usage: "Print the statement that was executed",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full result as JSON",
					},
				},
			},
			{
				Name:   "columns",
				Usage:  "List the columns of the configured view",
				Action: columns,
			},
			{
				Name:      "correct",
				Usage:     "Apply the name corrections to a SQL statement without running it",
				ArgsUsage: "<sql>",
				Action:    correct,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func ask(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("%w: a question is required", pkg.ErrInvalidInput)
	}

	intelliquery.InitConfig(c.String("env"))
	defer intelliquery.DB.Close()

	chatService, err := service.NewChatService(c.Context)
	if err != nil {
		return err
	}
	result, err := chatService.HandleChat(c.Context, question)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return pkg.PrettyPrint(os.Stdout, result)
	}
	if c.Bool("show-sql") && result.SQL != "" {
		fmt.Println(result.SQL)
	}
	fmt.Println(result.Response)
	return nil
}

func columns(c *cli.Context) error {
	intelliquery.InitConfig(c.String("env"))
	defer intelliquery.DB.Close()

	schemaService, err := service.NewSchemaService()
	if err != nil {
		return err
	}
	names, err := schemaService.Columns(c.Context)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func correct(c *cli.Context) error {
	statement := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if statement == "" {
		return fmt.Errorf("%w: a SQL statement is required", pkg.ErrInvalidInput)
	}

	cfg := intelliquery.LoadConfig(c.String("env"))
	profile, err := models.LoadSchemaProfile(cfg.Schema.ProfilePath)
	if err != nil {
		return err
	}
	strategy, err := models.ParseCorrectionStrategy(cfg.Schema.CorrectionStrategy)
	if err != nil {
		return err
	}

	fmt.Println(pkg.NewNameCorrector(profile, strategy).Correct(statement))
	return nil
}
