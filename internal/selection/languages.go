package selection

// languageByExt follows the identifiers editors report for a document.
var languageByExt = map[string]string{
	".bat":   "bat",
	".c":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cs":    "csharp",
	".css":   "css",
	".dart":  "dart",
	".diff":  "diff",
	".go":    "go",
	".h":     "c",
	".hpp":   "cpp",
	".html":  "html",
	".ini":   "ini",
	".java":  "java",
	".js":    "javascript",
	".json":  "json",
	".jsx":   "javascriptreact",
	".kt":    "kotlin",
	".lua":   "lua",
	".md":    "markdown",
	".php":   "php",
	".ps1":   "powershell",
	".py":    "python",
	".rb":    "ruby",
	".rs":    "rust",
	".scss":  "scss",
	".sh":    "shellscript",
	".bash":  "shellscript",
	".zsh":   "shellscript",
	".sql":   "sql",
	".swift": "swift",
	".toml":  "toml",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".txt":   "plaintext",
	".xml":   "xml",
	".yaml":  "yaml",
	".yml":   "yaml",
}

// languageByName covers files identified by their whole name.
var languageByName = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
	"go.mod":     "go.mod",
}
