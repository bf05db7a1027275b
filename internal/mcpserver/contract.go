package mcpserver

// FilterContract describes the news filters, their listing URLs and the
// paging rules for LLM consumers of list_news.
const FilterContract = `# News Filter Contract

The news listing shows entries of the site's page index whose path starts
with the news section prefix (default ` + "`" + `/news` + "`" + `). Exactly one filter is active.

## Filter values

| Value     | Phrase             | Keeps                                                     |
|-----------|--------------------|-----------------------------------------------------------|
| ` + "`" + `all` + "`" + `     | all time           | every news entry                                          |
| ` + "`" + `7days` + "`" + `   | the past 7 days    | entries dated on or after today minus 7 calendar days     |
| ` + "`" + `30days` + "`" + `  | the past 30 days   | entries dated on or after today minus 30 calendar days    |
| ` + "`" + `90days` + "`" + `  | the past 90 days   | entries dated on or after today minus 90 calendar days    |
| ` + "`" + `YYYY` + "`" + `    | (the year)         | entries whose path contains ` + "`" + `/news/YYYY` + "`" + `                   |

An entry's date is its publication date, or its last-modified time when no
publication date is set. Undated entries never match a time window. Any
other value falls back to ` + "`" + `all` + "`" + `.

## Listing URLs

- Time windows and all: ` + "`" + `/news.html?filterParam=<phrase>` + "`" + `, phrase percent-encoded,
  e.g. ` + "`" + `/news.html?filterParam=the%20past%207%20days` + "`" + `.
- Years: ` + "`" + `/news/YYYY.html` + "`" + `.
- An unknown ` + "`" + `filterParam` + "`" + ` phrase means all.

## Paging

Items come in index order, six per page. ` + "`" + `page=N` + "`" + ` returns the first N pages
together. ` + "`" + `more` + "`" + ` is true while items remain.

## Item fields

path, title, breadcrumb_title, date (e.g. "5 Mar 2024"), description (at
most 138 characters, ending in "..." when shortened), image, category
(the page template, or "News category"), from_department, robots.
`
