/*
Package compiler translates simplelang programs into accumulator machine listings.

Process of compilation

	Program Text ->
		lex ->
	Tokens ->
		parse (+ symtab) ->
	Abstract Syntax Tree (ast) and Symbol Table ->
		back ->
	Instructions (asm) ->
		asm.Append ->
	Listing Text

	Listing Text ->
		asm.Parse ->
	Instructions (asm) ->
		vm ->
	Memory

The first error stops the pipeline. Nothing is written in that case.
*/
package compiler
