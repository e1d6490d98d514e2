package mcpserver

// PostFormatContract describes the markdown files denkenote indexes.
const PostFormatContract = `# denkenote Post Format

Every ` + "`" + `.md` + "`" + ` file below the content directory is a post, except files named
` + "`" + `README.md` + "`" + `, dot-files and anything matching the configured ignore patterns.

## Structure

` + "```" + `markdown
---
title: Kick-off notes        # OPTIONAL – falls back to the first "# " heading
date: 2024-03-01             # OPTIONAL – used for date sorting
client: ACME                 # OPTIONAL – groups posts in the per-client view
project: Rocket              # OPTIONAL
url: kick-off                # OPTIONAL – slug accepted in place of the token
tags: [meeting]              # OPTIONAL
---

Body in GitHub-flavoured Markdown.
` + "```" + `

TOML (` + "`" + `+++` + "`" + `) and JSON (` + "`" + `;;;` + "`" + `) front matter work as well. Older notebooks may
use a plain divider line (for example ` + "`" + `--header--` + "`" + `) after a YAML block.

## Categories

The directory of a file is its category: ` + "`" + `work/plan.md` + "`" + ` belongs to ` + "`" + `work` + "`" + `,
nested directories are joined with ` + "`" + `-` + "`" + `, files in the root belong to ` + "`" + `_root` + "`" + `.
A numeric prefix such as ` + "`" + `01-work` + "`" + ` orders categories and is hidden in the UI.

## Links

Link other posts by their path relative to the content directory:
` + "`" + `[plan](work/plan.md#budget)` + "`" + `. Links to other files (images, PDFs) are served from
` + "`" + `/media/` + "`" + `. Absolute URLs are left alone.

## Identifiers

Every post gets a short token derived from a salt and either its file path or its
date, title, client and project. Use ` + "`" + `list_posts` + "`" + ` to look tokens up; ` + "`" + `read_post` + "`" + `
also accepts the ` + "`" + `url` + "`" + ` slug.
`
