package reconcile

// Canonical assistant replies.
const (
	MsgConnectionError = "Tive um erro de conexão. Tente novamente."
	MsgRephrase        = "Não consegui entender completamente. Pode reformular?"
	MsgAnswerFallback  = "Aqui está o que você pediu."
	MsgExported        = "Gerei o arquivo CSV com seus dados. O download deve começar automaticamente."
	MsgExportFailed    = "Não consegui gerar o arquivo CSV. Tente novamente."

	transactionCreatedFormat = "Registrei \"%s\" no valor de R$%s em %s."
	categoryCreatedFormat    = "Categoria \"%s\" criada com sucesso!"
)
