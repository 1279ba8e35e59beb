package llm

import (
	"fmt"
	"strings"
)

// BuildAnalysisPrompt assembles the CV-analysis prompt. When a location is
// given the model is told to prioritise jobs and salary ranges for it.
func BuildAnalysisPrompt(extractedText string, userLocation string) string {
	var locationContext string
	if userLocation != "" {
		locationContext = fmt.Sprintf(`

User Location: %s
IMPORTANT: Prioritize job recommendations in or near %s. Include remote opportunities as well. Tailor salary ranges to the local market in %s.`, userLocation, userLocation, userLocation)
	} else {
		locationContext = `

User Location: Not specified
Provide a mix of remote and general location job opportunities.`
	}

	var b strings.Builder
	b.WriteString(`You are a career development AI assistant. Analyze this CV and provide a structured response in JSON format.

CV Text:
`)
	b.WriteString(extractedText)
	b.WriteString(locationContext)
	b.WriteString(`

Provide your analysis in this exact JSON structure:
{
  "cvRating": 75,
  "skills": ["skill1", "skill2"],
  "experienceLevel": "Junior/Mid-Level/Senior",
  "missingSkills": ["skill1", "skill2"],
  "learningRoadmap": [
    {
      "week": 1,
      "skill": "Skill Name",
      "course": "Course Title",
      "platform": "Udemy/Coursera/LinkedIn Learning",
      "hours": 5,
      "link": "https://example.com/course"
    }
  ],
  "jobMatches": [
    {
      "title": "Job Title",
      "company": "Company Name",
      "matchScore": 85,
      "salary": "$80,000 - $100,000",
      "location": "Remote/City"
    }
  ]
}

Focus on:
0. Rate the CV quality from 0-100 based on completeness, formatting, clarity, achievements quantification, and professional presentation
1. Extract 5-10 key technical and soft skills
2. Identify 3-5 trending skills they're missing for career growth
3. Create a 6-week learning roadmap with real courses, prioritizing free resources
4. Suggest 3-5 job roles they could qualify for

Respond with the JSON object only. Be specific, actionable, and motivating.`)

	return b.String()
}

// MentorSystemPrompt frames the AI career mentor chat.
const MentorSystemPrompt = `You are an experienced and friendly AI Career Mentor. Your role is to provide actionable, personalized career advice to professionals at all levels.

Your expertise includes:
- CV/Resume optimization and improvement strategies
- Job search strategies and job matching based on skills
- Skill development and learning roadmaps
- Career transitions and pivots
- Salary negotiation tactics
- Interview preparation
- Professional networking
- Work-life balance and career growth

Communication style:
- Be warm, encouraging, and supportive
- Provide specific, actionable advice (not generic platitudes)
- Keep responses concise but comprehensive (2-4 paragraphs max)
- Ask clarifying questions when needed
- Be honest about challenges but always solution-oriented

Remember: You're a mentor, not just an information source. Guide users toward their career goals with empathy and expertise.`
