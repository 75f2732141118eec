// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import "context"

// RegisterBuiltinTools registers the filesystem tools and, when their
// services are present, the system tools.
func RegisterBuiltinTools(r *Registry, fsys *FS, sys SystemServices) error {
	var firstErr error
	register := func(tool Tool) {
		if err := r.RegisterTool(tool); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	pathParam := func(desc string) Param {
		return Param{Name: "path", Type: ParamString, Required: true, Description: desc}
	}
	overwriteParam := Param{Name: "overwrite", Type: ParamBoolean, Default: false,
		Description: "Replace an existing destination"}

	register(&ToolDefinition{
		NameValue:        "read_file",
		DescriptionValue: "Read a text file. Long files are truncated.",
		ParamsValue: []Param{
			pathParam("File to read"),
			{Name: "max_bytes", Type: ParamInteger, Default: fsys.limits.MaxReadBytes},
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.ReadFile(args.String("path"), args.Int("max_bytes", 0))
		},
	})

	register(&ToolDefinition{
		NameValue:        "list_dir",
		DescriptionValue: "List the files and folders directly inside a directory.",
		ParamsValue: []Param{
			{Name: "path", Type: ParamString, Default: "", Description: "Directory to list"},
			{Name: "max_entries", Type: ParamInteger, Default: fsys.limits.MaxListEntries},
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.ListDir(args.String("path"), args.Int("max_entries", 0))
		},
	})

	register(&ToolDefinition{
		NameValue:        "write_file",
		DescriptionValue: "Create or overwrite a text file. With append=true the content is added to the end instead.",
		ParamsValue: []Param{
			pathParam("File to write"),
			{Name: "content", Type: ParamString, Default: ""},
			{Name: "append", Type: ParamBoolean, Default: false},
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.WriteFile(args.String("path"), args.String("content"), args.Bool("append", false))
		},
		ValidateFunc: RequireNonBlankArg("path"),
	})

	register(&ToolDefinition{
		NameValue:        "make_dir",
		DescriptionValue: "Create a directory, including missing parents.",
		ParamsValue:      []Param{pathParam("Directory to create")},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.MakeDir(args.String("path"))
		},
		ValidateFunc: RequireNonBlankArg("path"),
	})

	register(&ToolDefinition{
		NameValue:        "delete_path",
		DescriptionValue: "Delete a file or directory. The project and documents roots cannot be deleted.",
		ParamsValue: []Param{
			pathParam("File or directory to delete"),
			{Name: "recursive", Type: ParamBoolean, Default: true, Description: "Delete non-empty directories"},
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.DeletePath(args.String("path"), args.Bool("recursive", true))
		},
		ValidateFunc: RequireNonBlankArg("path"),
	})

	register(&ToolDefinition{
		NameValue: "move_path",
		DescriptionValue: "Move a file or directory. If dst is an existing directory the source is moved inside it.\n" +
			"An existing destination is kept unless overwrite=true.",
		ParamsValue: []Param{
			{Name: "src", Type: ParamString, Required: true},
			{Name: "dst", Type: ParamString, Required: true},
			overwriteParam,
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.MovePath(args.String("src"), args.String("dst"), args.Bool("overwrite", false))
		},
		ValidateFunc: ChainValidation(RequireNonBlankArg("src"), RequireNonBlankArg("dst")),
	})

	register(&ToolDefinition{
		NameValue: "copy_path",
		DescriptionValue: "Copy a file or directory. If dst is an existing directory the copy is placed inside it.\n" +
			"An existing destination is kept unless overwrite=true.",
		ParamsValue: []Param{
			{Name: "src", Type: ParamString, Required: true},
			{Name: "dst", Type: ParamString, Required: true},
			overwriteParam,
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.CopyPath(args.String("src"), args.String("dst"), args.Bool("overwrite", false))
		},
		ValidateFunc: ChainValidation(RequireNonBlankArg("src"), RequireNonBlankArg("dst")),
	})

	register(&ToolDefinition{
		NameValue:        "rename_path",
		DescriptionValue: "Rename a file or directory in place. new_name is a bare name, not a path.",
		ParamsValue: []Param{
			pathParam("File or directory to rename"),
			{Name: "new_name", Type: ParamString, Required: true},
			overwriteParam,
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.RenamePath(args.String("path"), args.String("new_name"), args.Bool("overwrite", false))
		},
		ValidateFunc: RequireNonBlankArg("path"),
	})

	register(&ToolDefinition{
		NameValue:        "replace_text",
		DescriptionValue: "Replace exact text in a file. count limits how many occurrences change; 0 means all.",
		ParamsValue: []Param{
			pathParam("File to edit"),
			{Name: "old", Type: ParamString, Required: true},
			{Name: "new", Type: ParamString, Required: true},
			{Name: "count", Type: ParamInteger, Default: 0},
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.ReplaceText(args.String("path"), args.String("old"), args.String("new"), args.Int("count", 0))
		},
	})

	register(&ToolDefinition{
		NameValue: "insert_text",
		DescriptionValue: "Insert text into a file right after the 'after' anchor or right before the 'before' anchor.\n" +
			"Without an anchor the text is appended.",
		ParamsValue: []Param{
			pathParam("File to edit"),
			{Name: "text", Type: ParamString, Required: true},
			{Name: "after", Type: ParamString},
			{Name: "before", Type: ParamString},
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.InsertText(args.String("path"), args.String("text"), args.String("after"), args.String("before"))
		},
		ValidateFunc: MutuallyExclusiveArgs("after", "before"),
	})

	register(&ToolDefinition{
		NameValue:        "search_text",
		DescriptionValue: "Search files for lines containing the query text. Results are path:line: text.",
		ParamsValue: []Param{
			{Name: "query", Type: ParamString, Required: true},
			{Name: "path", Type: ParamString, Default: "", Description: "File or directory to search"},
			{Name: "max_matches", Type: ParamInteger, Default: fsys.limits.MaxSearchMatches},
		},
		ExecuteFunc: func(ctx context.Context, args Args) (string, error) {
			return fsys.SearchText(ctx, args.String("query"), args.String("path"), args.Int("max_matches", 0))
		},
	})

	register(&ToolDefinition{
		NameValue:        "summarize_file",
		DescriptionValue: "Show a file's size and its first lines.",
		ParamsValue: []Param{
			pathParam("File to summarize"),
			{Name: "head_lines", Type: ParamInteger, Default: fsys.limits.SummaryHeadLines},
			{Name: "max_bytes", Type: ParamInteger, Default: fsys.limits.SummaryMaxBytes},
		},
		ExecuteFunc: func(_ context.Context, args Args) (string, error) {
			return fsys.SummarizeFile(args.String("path"), args.Int("head_lines", 0), args.Int("max_bytes", 0))
		},
	})

	registerSystemTools(register, fsys, sys)
	return firstErr
}
