// Package registration содержит доменную модель заявки на участие в проекте.
//
// Пакет определяет:
//
//   - Value Objects: Registrant, Participation, Document
//   - Сущности: Draft (незавершённая анкета) и Submission (сохранённая заявка)
//   - Catalog: неизменяемый набор факультетов и допустимых расширений файлов
//   - Интерфейсы: Repository (таблица applications) и FileStore (дерево папок по факультетам)
//
// # Архитектурные принципы
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Факультет выбирается по позиции в Catalog, текст от клиента не используется
//  3. Submission неизменяем после сохранения
//
// # Жизненный цикл
//
// Draft создаётся командой /start, заполняется по шагам диалога и
// превращается в Submission только после явного подтверждения:
//
//	draft := registration.NewDraft(registrant, chatID)
//	draft.FullName = "Ivan Petrov"
//	faculty, err := catalog.FacultyAt(4)
//	...
//	sub, err := registration.NewSubmission(draft, storedName, time.Now())
package registration
