package main

import (
	"github.com/spf13/cobra"

	"plumber/internal/gitops"
)

var (
	repoPath    string
	repoAll     bool
	repoMessage string
	repoAuthor  string
	repoEmail   string
	repoCreate  bool
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage the git repositories generated code lives in",
}

func gitSvc() *gitops.Service { return gitops.NewService(logger) }

var repoInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a repository, or report the existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(gitSvc().Init(repoPath))
	},
}

var repoStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the branch and the staged, modified and untracked files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(gitSvc().Status(repoPath))
	},
}

var repoAddCmd = &cobra.Command{
	Use:   "add [files...]",
	Short: "Stage files for commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(gitSvc().Add(repoPath, args, repoAll))
	},
}

var repoCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the staged changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(gitSvc().Commit(repoPath, repoMessage, repoAuthor, repoEmail))
	},
}

var repoBranchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List local branches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(gitSvc().Branches(repoPath))
	},
}

var repoSwitchCmd = &cobra.Command{
	Use:   "switch [branch]",
	Short: "Switch to a branch, optionally creating it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(gitSvc().Switch(repoPath, args[0], repoCreate))
	},
}

func init() {
	repoCmd.PersistentFlags().StringVar(&repoPath, "repo", ".", "path to the repository")

	repoAddCmd.Flags().BoolVar(&repoAll, "all", false, "stage everything")
	repoCommitCmd.Flags().StringVarP(&repoMessage, "message", "m", "", "commit message")
	repoCommitCmd.Flags().StringVar(&repoAuthor, "author", "", "author name (default: plumber)")
	repoCommitCmd.Flags().StringVar(&repoEmail, "email", "", "author email (default: plumber@localhost)")
	_ = repoCommitCmd.MarkFlagRequired("message")
	repoSwitchCmd.Flags().BoolVar(&repoCreate, "create", false, "create the branch when missing")

	repoCmd.AddCommand(repoInitCmd, repoStatusCmd, repoAddCmd, repoCommitCmd, repoBranchesCmd, repoSwitchCmd)
	rootCmd.AddCommand(repoCmd)
}
