package constants

// SQLResultStopSequence keeps the model from fabricating a result block after the query.
const SQLResultStopSequence = "\nSQLResult:"

const SQLGenerationSystemPrompt = "Given an input question, convert it to a SQL query. No pre-amble."

const SQLGenerationPrompt = `Based on the table schema below, write a SQL query that would answer the user's question:
{schema}

Question: {question}
SQL Query:`

const AnswerSystemPrompt = "Given an input question and SQL response, convert it to a natural language answer. No pre-amble."

const AnswerPrompt = `Based on the table schema below, question, sql query, and sql response, write a natural language response:
{schema}

Question: {question}
SQL Query: {query}
SQL Response: {response}`

// AnswerFormat is the composed output returned to the caller.
const AnswerFormat = "Question: %s\n\nAnswer: %s"
