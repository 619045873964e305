package cmd

// HELP_TEMPL renders the application help: description, then one line per
// visible command with its aliases.
const HELP_TEMPL = `{{.Description}}
Usage:
  {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} <command> [flags] [arguments...]{{end}}
{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}
 {{.Name}}:{{end}}{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{end}}
{{end}}
Run "{{.HelpName}} help <command>" for the flags of a command.
`

// CMD_HELP_TEMPL renders the help of a single command.
const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}}: {{.Usage}}
{{end}}
Usage:
  {{.HelpName}}{{if .UsageText}} {{.UsageText}}{{else}} [flags] [arguments...]{{end}}{{if .VisibleFlags}}

Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}
`
