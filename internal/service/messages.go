package service

// User-facing messages. Clients display these verbatim.
const (
	MsgPINHint          = "PIN administrado desde el panel. Solicítalo a tu coordinador."
	MsgPINInvalid       = "PIN incorrecto. Inténtalo de nuevo."
	MsgAlreadySent      = "Esta respuesta ya fue enviada. Ingresa el PIN para responder de nuevo."
	MsgAccessRequired   = "Debes ingresar el PIN para responder."
	MsgRequiredMissing  = "Completa todas las preguntas obligatorias."
	MsgSending          = "Enviando..."
	MsgThanks           = "Gracias por participar"
	MsgPersistFailed    = "No pudimos guardar la respuesta. Intenta de nuevo."
	MsgReloadPrompt     = "No se pudieron cargar las preguntas. Intenta recargar la página."
	MsgSubmitInProgress = "Tu respuesta se está enviando."

	MsgQuestionTextRequired = "Ingresa el texto de la pregunta."
	MsgQuestionSaved        = "Pregunta guardada correctamente."
	MsgQuestionUpdated      = "Guardado. La encuesta mostrará esta versión."
	MsgQuestionDeleted      = "Pregunta eliminada."
	MsgDeleteConfirm        = "¿Eliminar esta pregunta del catálogo?"
	MsgActionFailed         = "No se pudo completar la acción."

	MsgPINCurrentMismatch = "El PIN actual no coincide."
	MsgPINNewRequired     = "Ingresa el nuevo PIN."
	MsgPINTooShort        = "El PIN debe tener al menos 4 caracteres."
	MsgPINConfirmMismatch = "El nuevo PIN no coincide en la confirmación."
	MsgPINUpdated         = "PIN actualizado. Usa este valor en la encuesta."

	MsgLoginFailed = "No pudimos iniciar sesión. Revisa tus credenciales."
	MsgForbidden   = "No tienes permisos de administrador."
)

const (
	MsgSessionNotFound = "La sesión expiró. Recarga la página."
	MsgFormOutdated    = "El formulario no coincide con las preguntas actuales. Recarga la página."
	MsgInvalidType     = "Tipo de pregunta no válido."
	MsgQuestionMissing = "La pregunta no existe."
	MsgInvalidBody     = "Solicitud inválida."
	MsgQuestionExists  = "Ya existe una pregunta con ese identificador."
)
