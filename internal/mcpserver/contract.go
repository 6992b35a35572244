package mcpserver

// NoteFormatContract describes the zettel file format that LLM consumers
// should follow when creating zettels.
const NoteFormatContract = `# Zettel Format Contract

Every zettel is a UTF-8 text file named ` + "`" + `<id>.md` + "`" + ` in the root of the
zettelkasten directory. Sub-directories are ignored.

## Structure

` + "```" + `text
title: Human-readable title
created: 2020-03-14
tags: reading, systems

Free text. Cite other zettels as @other-id anywhere in the text.
` + "```" + `

## Rules

1. **Ids** use only letters, digits, ` + "`" + `_` + "`" + ` and ` + "`" + `-` + "`" + ` (e.g. ` + "`" + `20200314-note` + "`" + `).
2. **Front-matter** is the run of ` + "`" + `key: value` + "`" + ` lines at the very top of the
   file. Keys use the same characters as ids. The first line that is not a
   ` + "`" + `key: value` + "`" + ` pair starts the content, so leave a blank line after the front-matter.
3. **` + "`" + `title` + "`" + `** is optional. A zettel without one is titled by its id.
4. **Citations** are written ` + "`" + `@id` + "`" + `. The id runs until the first character that
   is not allowed in ids, so ` + "`" + `@note.` + "`" + ` cites ` + "`" + `note` + "`" + `.
5. Citing a zettel that does not exist is allowed but reported as a dangling reference.
6. Renaming a zettel rewrites every ` + "`" + `@old-id` + "`" + ` citation in the zettelkasten.

## Example

` + "```" + `text
title: Weekly standup 2020-03-16
tags: meeting

Discussed the @design-doc. Follow up in @20200317-review.
` + "```" + `
`
