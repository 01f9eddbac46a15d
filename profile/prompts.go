package profile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/feb-co/mem0-avater/core"
)

const classifyConflictTemplate = `You will be provided with a dialogue between a user and an assistant, along with a History Profile dict containing previously known information about the user. Based on the content of the dialogue, classify it into one of the below two categories. Consider both the explicit information in the latest turn and any necessary context from previous turns to determine if there's a conflict with the existing profile. Only provide the letter corresponding to the category:
a. Conflicting Information: The dialogue contains information that directly conflicts with any existing entry in the History Profile dict. A conflict occurs when the new information contradicts or is incompatible with the previously recorded information for the same attribute. This includes both explicit contradictions and implicit conflicts that suggest a change in the user's situation or perspective.
b. No Conflict or Other Changes: This category includes all other scenarios, such as:
  - No update to the user's profile
  - More detailed information added to existing profile entries
  - New profile information added (without conflicting with existing data)
  - Removal of previously known profile information
  - The user refuses to provide information

Important guidelines:
1. Carefully compare new information with existing entries in the History Profile dict.
2. Consider both explicit and implicit conflicts. An implicit conflict might arise when new information suggests a significant change in the user's situation or perspective.
3. Pay attention to temporal context. Information that might have been true in the past but is no longer true should be considered a conflict.
4. Analyze the semantic meaning of the statements, not just literal matches.
5. If multiple pieces of information are provided, classify as 'a' if ANY of them conflict with the existing profile.

Information Types:
%s

## Example:
History Profile: {"Age": {"value": "25 years old"}, "Hobby": {"value": "reading"}, "Nationality": {"value": "American"}}
Dialogue: [{"role": "user", "content": "I just turned 30 last month, and I'm considering moving back to China where I was born."}]
category: a
Explanation: The user states they are 30 years old, which conflicts with the existing Age entry. Being born in China conflicts with the existing Nationality entry of "American".

History Profile: %s
Dialogue: %s
category: `

const classifyNonConflictTemplate = `You will be provided with a dialogue between a user and an assistant. Based on the content of the latest turn, classify the dialogue into one of the below three categories. Consider both the explicit information in the latest turn and any necessary context from previous turns to determine if the specified user's information types are present. Only provide the letter corresponding to the category:

a. Information Provided by User: The dialogue contains one or more of the specified information types provided by the user about themselves. Even if other types of information are absent, as long as there is at least one type of specified information provided by the user about themselves, choose this category.

b. Information Absent: The dialogue does not contain any of the specified user's information types.

c. Refusal to Provide Information: The user explicitly refuses to provide or discusses their unwillingness to share any of the specified information types about themselves.

Important guidelines:
1. Interpret the information types broadly. Any statement that reasonably implies or relates to a listed information type should be considered as providing that information.
2. Consider the entire context of the dialogue, not just the latest response.
3. When in doubt, err on the side of category 'a' if there's any reasonable connection to the listed information types.
4. Only information provided by the user about themselves is relevant; information provided by the assistant about themselves should not be considered.
5. Your response must be a single letter: a, b, or c.

Example:
Dialogue: [{"role": "user", "content": "Can you compile a list of tips on how to use large models for me?"}]
category: b

Dialogue: %s
Information Types: %s
category: `

const extractProfileTemplate = `Develop a multi-turn dialogue system to subtly gather data about users' personal, professional, and financial profiles based on user interaction history. As an advanced intelligent assistant, aim to deduce information through natural conversation.

**Information Extraction**: Infer key information from user responses across a wide range of topics. Only extract information from the user's responses, and disregard any information that comes from the assistant's responses.

**Key User Profiles to Extract**:
%s

If the user refuses to answer, the value of the output profile is refuse. If the user does not answer, the value of the output profile is None.

**SubTask**: Merge User Profiles
**Objective**: Update and merge the new user profile based on the provided history profile. The output should be the most detailed and specific user profile information possible.

**Key Instructions**:
- Focus primarily on extracting new or updated information from the most recent conversation turn. Use the historical profile and earlier parts of the conversation only for context.
- If the user explicitly states they do not want to share information, or expresses any form of reluctance to provide information, the value of the output profile should be 'refuse'.
- In the output, only include attributes that have been explicitly mentioned or updated in the latest conversation.
- For attributes that can logically have multiple values (e.g., "Hobby", "Investment Goal", "Personal Interest"), merge new information with existing values, creating a combined list of unique items inside a single string.
- For attributes that typically have a single value or represent a current state (e.g., "Age", "Profession Background", "Current Investment Status"), replace the old value with the new information if provided.
- If the new value extracted is None, retain the historical value without updating.
- For attributes describing qualities or levels (such as risk tolerance), always use descriptive phrases that accurately capture the user's stance rather than bare 'high' or 'low' values.
- Only extract and update profile information explicitly stated by the user about themselves; ignore information about the assistant or other individuals.
- If no new information is provided, must not include that attribute in the output.

Example:
Input history user's profile: {"Name": "Alice", "Profession Background": "Data Analyst", "Hobby": "Reading", "Resident": "New York"}
Input conversation: [{"role": "user", "content": "I'd rather not share my name. Actually, I've recently switched to being a software developer, started learning guitar, and moved to San Francisco."}]
output user's profile_dict: {"Name": "refuse", "Profession Background": "Software Developer", "Hobby": "Reading, Playing the Guitar", "Resident": "San Francisco"}

**Output Format Requirements**:
- The output must be a single JSON object.
- All keys and values must be strings; do not use lists or arrays.
- Do not include any descriptive text or explanations, ONLY the final JSON object.

Input history user's profile:
%s

Input conversation:
%s

output user's profile_dict (ensure it's the USER's profile, not the ASSISTANT's): `

func conflictPrompt(schema *Schema, profile *Profile, messages []core.Message) string {
	return fmt.Sprintf(classifyConflictTemplate,
		strings.Join(schema.Keys(), ", "),
		marshalOrEmpty(profile.KnownValues()),
		marshalOrEmpty(messages),
	)
}

func nonConflictPrompt(schema *Schema, messages []core.Message) string {
	return fmt.Sprintf(classifyNonConflictTemplate,
		marshalOrEmpty(messages),
		strings.Join(schema.Keys(), ", "),
	)
}

func extractPrompt(schema *Schema, profile *Profile, messages []core.Message) string {
	return fmt.Sprintf(extractProfileTemplate,
		strings.Join(schema.Descriptions(), "\n"),
		marshalOrEmpty(profile.KnownValues()),
		marshalOrEmpty(messages),
	)
}

func marshalOrEmpty(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
