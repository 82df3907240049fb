package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"reviewsentiment/internal/domain"
)

const (
	classifySystemPrompt = "You are an expert sentiment analyst fluent in both Arabic and English. " +
		"Respond with ONLY valid JSON. No explanatory text before or after the JSON."
	summarySystemPrompt = "You are an expert healthcare analyst fluent in Arabic and English. " +
		"Generate concise, actionable summaries in valid JSON format only."

	classifyTemperature = 0.3
	classifyMaxTokens   = 1000
	summaryTemperature  = 0.3
	summaryMaxTokens    = 800

	// maxPromptKeyPoints bounds the key points sent per bucket to keep the
	// request inside the token budget.
	maxPromptKeyPoints = 50
)

// hasArabic reports whether text contains any rune in the Arabic block.
func hasArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

func languageHint(text string) string {
	if hasArabic(text) {
		return "Arabic"
	}
	return "English/Other"
}

func formatRating(r *float64) string {
	if r == nil {
		return "not provided"
	}
	return strconv.FormatFloat(*r, 'f', -1, 64) + "/5"
}

func classificationPrompt(r domain.Review) string {
	var dims strings.Builder
	for _, d := range domain.Dimensions {
		fmt.Fprintf(&dims, "   - **%s**: %s\n", d, domain.DimensionDescriptions[d])
	}

	return fmt.Sprintf(`Analyze this review using both the review text and rating to provide comprehensive sentiment analysis:

**Input:**
- Review Text: %q
- Rating: %s
- Language: %s

**Analysis Instructions:**

1. **Primary Classification:**
   - If review text exists: Analyze both text sentiment and rating
   - If review text is empty: Base classification solely on rating
   - Rating scale: 1-2 (negative), 3 (neutral), 4-5 (positive)

2. **Language Handling:**
   - If the review is in Arabic, analyze it in Arabic but respond in English
   - Preserve original Arabic text meaning in the analysis
   - Key points should reflect the original Arabic sentiment

3. **Conflict Detection:**
   - If text sentiment contradicts rating, classify as "doubtful"
   - Consider rating vs text sentiment alignment

4. **Sentiment Dimensions Analysis:**
   Identify which dimensions are mentioned:
%s
RESPOND WITH ONLY VALID JSON IN THIS EXACT FORMAT:
{
  "sentiment": "positive/negative/neutral/doubtful",
  "confidence": 0.0,
  "sentiment_score": 0.0,
  "dimensions": [
    {
      "name": "dimension_name",
      "sentiment": "positive/negative/neutral",
      "key_points": ["point1", "point2"]
    }
  ],
  "key_themes": ["theme1", "theme2"],
  "severity": 0,
  "summary": "Brief analysis summary"
}

**Guidelines:**
- sentiment_score: -1.0 (very negative) to +1.0 (very positive)
- confidence: 0.0 to 1.0 (certainty in classification)
- severity: 1-5 (only for negative sentiment, 1=minor, 5=critical)
- Include only relevant dimensions that are actually mentioned
- If no text, note "Analysis based on rating only" in summary
- For Arabic text, ensure analysis captures cultural context
`, r.Text, formatRating(r.Rating), languageHint(r.Text), dims.String())
}

const summaryFormat = `{
  "summary": "Brief overview of %s",
  "key_insights": ["Insight 1", "Insight 2", "... up to 10"],
  "recommendations": ["Recommendation 1", "Recommendation 2", "... up to 10"]
}`

const summaryGuidelines = `**Guidelines:**
- For positive: Focus on strengths to maintain and areas of excellence
- For negative: Focus on improvement areas and actionable recommendations
- Keep insights concise and actionable
- Base recommendations on the most frequent issues/strengths
- Consider both Arabic and English review contexts
- Limit to 5-10 insights and recommendations
`

func sentimentSummaryPrompt(sentiment domain.Sentiment, reviewCount int, breakdown []dimensionBreakdown, keyPoints []string) string {
	return fmt.Sprintf(`Based on the following %s review analysis, generate a comprehensive summary:

**Review Count:** %d

**Dimension Breakdown:**
%s

**All Key Points:**
%s

Generate a summary in the following JSON format:
%s

%s`,
		sentiment, reviewCount,
		promptJSON(breakdown),
		promptJSON(firstKeyPoints(keyPoints)),
		fmt.Sprintf(summaryFormat, string(sentiment)+" feedback"),
		summaryGuidelines,
	)
}

func dimensionSummaryPrompt(dimension domain.Dimension, sentiment domain.Sentiment, mentions int, keyPoints []string) string {
	return fmt.Sprintf(`Based on the following %s mentions in the %s dimension:

**Review Count:** %d

**All Key Points:**
%s

Generate a summary in the following JSON format:
%s

%s`,
		sentiment, dimension, mentions,
		promptJSON(firstKeyPoints(keyPoints)),
		fmt.Sprintf(summaryFormat, fmt.Sprintf("%s feedback in %s", sentiment, dimension)),
		summaryGuidelines,
	)
}

func firstKeyPoints(points []string) []string {
	if len(points) > maxPromptKeyPoints {
		return points[:maxPromptKeyPoints]
	}
	if points == nil {
		return []string{}
	}
	return points
}

// promptJSON renders v for embedding in a prompt, keeping '&' and non-ASCII literal.
func promptJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(buf.String())
}
