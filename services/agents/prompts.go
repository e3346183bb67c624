// Copyright (C) 2026 Inkwell AI (dev@inkwell-ai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

const plannerPrompt = `You are planning a long-form article about: %s

Produce a JSON blueprint with this exact shape:
{
  "title": "...",
  "audience": "...",
  "sections": [
    {
      "heading": "...",
      "description": "what this section covers",
      "word_count": 300,
      "research_queries": ["..."]
    }
  ]
}

Rules:
- 4 to 8 sections, logically ordered.
- Word counts between 150 and 600 per section.
- One or two focused research queries per section.%s
Respond with the JSON only.`

const plannerAffiliateAddendum = `
- The article supports affiliate content: include at least one section
  comparing concrete products or services the reader could buy.`

const discoveryPrompt = `You are a content strategist for the niche: %s

Suggest trending, underserved article topics a small publisher could
rank for. Respond with JSON only:
{
  "candidates": [
    {"topic": "...", "score": 0.0}
  ]
}

Score each topic from 0 to 1 for expected reader demand. Return 5
candidates, best first.`

const researchPrompt = `Write dense, factual research notes answering: %s

Cover the key facts, numbers, dates, and names a writer would need.
Use markdown with short paragraphs. Do not editorialize. If you are
not confident about a specific figure, say so in the notes.`

const sectionPrompt = `Write one section of a longer article.

Section heading: %s
What it covers: %s
Target length: about %d words.

Use this research material where relevant:
%s

Rules:
- Start with the markdown heading line "## %s".
- Ground claims in the research material when it covers them.
- No introduction or conclusion for the whole article, just this section.`

const assemblePrompt = `Below is a draft article assembled from independently written
sections. Polish it into one coherent piece: smooth the transitions,
remove repetition between sections, and add a single top-level
"# %s" heading at the start. Keep every "## " section heading and do
not shorten the content materially.

%s`

const verifyPrompt = `Fact-check the following article. Respond with JSON only:
{
  "has_errors": false,
  "corrections": ""
}

If you find factual errors, set has_errors to true and describe each
error and its correction in the corrections field. Only flag genuine
factual problems, not style.

Article:
%s`

const auditPrompt = `You are a demanding editor reviewing an article titled "%s" for
this audience: %s. Respond with JSON only:
{
  "passed": true,
  "feedback": ""
}

Fail the article only for substantive problems: missing coverage of
the planned sections, unclear structure, or thin content. When you
fail it, give specific, actionable feedback.

Article:
%s`

const refinePrompt = `Revise the following article to address this feedback:

%s

Keep the markdown structure, including the "# " title and all "## "
section headings. Return the complete revised article and nothing
else.

Article:
%s`
