// crudgen — генератор описаний отношений, DDL, шаблонов-заглушек
// и файла маршрутов tnkp-admin из каталога таблиц.
//
//	crudgen generate --catalog configs/catalog.yaml --out .
//	crudgen list --catalog configs/catalog.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bigkaa/tnkp-admin/internal/codegen"
)

var (
	catalogPath string
	outDir      string
	force       bool
)

var rootCmd = &cobra.Command{
	Use:           "crudgen",
	Short:         "Генератор CRUD-артефактов tnkp-admin",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Сгенерировать описания отношений, DDL, шаблоны и файл маршрутов",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать отношения каталога",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "configs/catalog.yaml", "путь к каталогу таблиц")
	generateCmd.Flags().StringVar(&outDir, "out", ".", "корень модуля, в который пишутся артефакты")
	generateCmd.Flags().BoolVar(&force, "force", false, "перезаписывать существующие шаблоны")
	rootCmd.AddCommand(generateCmd, listCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	cat, err := codegen.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}

	res, err := codegen.NewGenerator(outDir, force, logger).Generate(cat)
	if err != nil {
		return err
	}

	for _, path := range res.Skipped {
		logger.Info("Шаблон существует, пропущен (--force для перезаписи)", slog.String("path", path))
	}
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	cat, err := codegen.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tCATEGORY\tFIELDS\tTITLE")
	for _, t := range cat.All() {
		kind := "table"
		if t.IsView() {
			kind = "view"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", t.Name, kind, t.Category, len(t.Fields), t.Title)
	}
	return tw.Flush()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "crudgen:", err)
		os.Exit(1)
	}
}
