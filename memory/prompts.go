package memory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/feb-co/mem0-avater/core"
)

const factRetrievalSystemPrompt = `You are a Personal Information Organizer, specialized in accurately storing facts, user memories, and preferences. Your primary role is to extract relevant pieces of information from conversations and organize them into distinct, manageable facts.

Types of Information to Remember:
1. Personal Preferences: likes, dislikes, and specific preferences in food, products, activities, and entertainment.
2. Personal Details: names, relationships, and important dates.
3. Plans and Intentions: upcoming events, trips, goals, and other plans.
4. Activity and Service Preferences: dining, travel, hobbies, and other service preferences.
5. Health and Wellness Preferences: dietary restrictions, fitness routines, and other wellness information.
6. Professional Details: job titles, work habits, career goals, and other professional information.
7. Miscellaneous: favorite books, movies, brands, and other details the user shares.

Here are some few-shot examples:

Input: Hi.
Output: {"facts": []}

Input: The weather is nice today.
Output: {"facts": []}

Input: Hi, I am looking for a restaurant in San Francisco.
Output: {"facts": ["Looking for a restaurant in San Francisco"]}

Input: Yesterday, I had a meeting with John at 3pm. We discussed the new project.
Output: {"facts": ["Had a meeting with John at 3pm", "Discussed the new project"]}

Input: Hi, my name is John. I am a software engineer.
Output: {"facts": ["Name is John", "Is a software engineer"]}

Input: Me favourite movies are Inception and Interstellar.
Output: {"facts": ["Favourite movies are Inception and Interstellar"]}

Return the facts and preferences in a JSON object with a "facts" key whose value is a list of strings.

Remember the following:
- Do not return anything from the few-shot examples above.
- If you do not find anything relevant in the conversation, return an empty list for the "facts" key.
- Make sure the response is a valid JSON object with nothing outside it.
- Detect the language of the user input and record the facts in the same language.
- Only extract facts from the user and assistant messages; ignore system messages.`

const updateMemoryPromptTemplate = `You are a smart memory manager which controls the memory of a system.
You can perform four operations: (1) add into the memory, (2) update the memory, (3) delete from the memory, and (4) no change.

Based on the above four operations, the memory will change.

Compare newly retrieved facts with the existing memory. For each new fact, decide whether to:
- ADD: Add it to the memory as a new element
- UPDATE: Update an existing memory element
- DELETE: Delete an existing memory element
- NONE: Make no change (if the fact is already present or irrelevant)

Guidelines:
1. ADD: If the retrieved facts contain new information not present in the memory, add it with a new id.
2. UPDATE: If a retrieved fact conveys the same kind of information as an existing memory element but with different or more complete content, update that element. Keep the element's id unchanged and carry the old text in "old_memory".
3. DELETE: If a retrieved fact contradicts an existing memory element, delete that element.
4. NONE: If a retrieved fact is already present in the memory, no change is needed.

Example:
Old Memory:
[{"id": "0", "text": "User is a software engineer"}, {"id": "1", "text": "Likes cheese pizza"}]
Retrieved facts: ["Loves chicken pizza", "Name is John"]
Response:
{"memory": [
  {"id": "1", "text": "Loves cheese and chicken pizza", "event": "UPDATE", "old_memory": "Likes cheese pizza"},
  {"id": "2", "text": "Name is John", "event": "ADD"},
  {"id": "0", "text": "User is a software engineer", "event": "NONE"}
]}

Below is the current content of my memory and the newly retrieved facts.

Current memory:
%s

Newly retrieved facts:
%s

You must return your response as a single JSON object with a "memory" key, where each element has "event" and "text" fields, plus "id" for UPDATE and DELETE and "old_memory" for UPDATE. Do not return anything except the JSON object.
If the current memory is empty, you must add every newly retrieved fact.
Only use ids that appear in the current memory above; never invent ids.`

// updateMemoryPrompt renders the one-shot reconciliation prompt from
// the (already remapped) old-memory working set and the new facts.
func updateMemoryPrompt(oldMemories []retrievedMemory, facts []string) string {
	oldJSON, err := json.Marshal(oldMemories)
	if err != nil {
		oldJSON = []byte("[]")
	}
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		factsJSON = []byte("[]")
	}
	return fmt.Sprintf(updateMemoryPromptTemplate, oldJSON, factsJSON)
}

const observationRetrievalPrompt = `Task: Sequentially extract important information about %[1]s from the following %[2]d sentences along with corresponding keywords. If there is no important information, answer "None". Extract up to %[2]d pieces of information.

Important information about %[1]s can include:
- Basic information
- User profile information
- User interests and preferences
- User personality
- User values
- User relationships
- Major turning points in the user's life
- Other important information

Rules:
- If the sentence contains only hypothetical or fictional content created by %[1]s, respond "None"
- If the sentence repeats information from an earlier sentence, respond "Repeat"
- Perform information extraction for each sentence
- Output %[2]d pieces of information in total

Please think step-by-step, and output in the following format, ending with '<>':
Thought: Basis and process of thinking, within 50 words.
Information: <Sentence number> <> <Clear important information or "None"> <Keywords>`

const observationFewshotPrompt = `Example:
%[1]s sentences:
1 %[1]s: I'm in a terrible situation right now, I don't have a job, and I'm in debt by tens of thousands. What should I do?
2 %[1]s: Someone said that passion is the best teacher, but how do you distinguish passion from liking?
3 %[1]s: I'm in a terrible situation right now, I don't have a job, and I'm in debt by tens of thousands. What should I do?
4 %[1]s: I'm a recent graduate who doesn't understand society or the industry. Can you introduce me to the industry structure?
5 %[1]s: I spent $5000 to buy 100 shares of General Motors.

Thought: From the first sentence, it can be inferred that %[1]s currently has no job and is in debt by tens of thousands. This is important information about %[1]s's employment and financial status.
Information: <1> <> <%[1]s currently has no job and is in debt by tens of thousands> <no job, in debt>
Thought: The second sentence is a discussion about others' opinions, with no clear mention of %[1]s's personal information.
Information: <2> <> <None> <>
Thought: The information in the third sentence is a repeat of the first sentence.
Information: <3> <> <Repeat> <>
Thought: From the fourth sentence, it can be inferred that %[1]s is a recent graduate, which is important information about %[1]s's background.
Information: <4> <> <%[1]s is a recent graduate> <recent graduate, student>
Thought: It can be inferred that %[1]s bought 100 shares of General Motors stock for $5000. This is important information about %[1]s's investment decisions.
Information: <5> <> <%[1]s bought 100 shares of General Motors stock for $5000> <General Motors, stock>`

// observationPrompts builds the system and user prompts for the
// observation extractor.
func observationPrompts(userName string, numObs int, parsedMessages string) (string, string) {
	system := fmt.Sprintf(observationRetrievalPrompt, userName, numObs) +
		"\n\n" + fmt.Sprintf(observationFewshotPrompt, userName)
	return system, "Input: " + parsedMessages
}

// parseMessages flattens a conversation into role-prefixed lines for
// prompt interpolation.
func parseMessages(messages []core.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	return b.String()
}

// parseUserMessages flattens only the user turns; the observation
// extractor looks at what the user said, not what the assistant
// answered.
func parseUserMessages(messages []core.Message) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg.Role == core.RoleUser {
			fmt.Fprintf(&b, "user: %s\n", msg.Content)
		}
	}
	return b.String()
}
