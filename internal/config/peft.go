// SPDX-License-Identifier: MIT

package config

// PEFTTaskTypes are the values peft_config.task_type may take.
var PEFTTaskTypes = []string{
	"SEQ_CLS",
	"SEQ_2_SEQ_LM",
	"CAUSAL_LM",
	"TOKEN_CLS",
	"QUESTION_ANS",
	"FEATURE_EXTRACTION",
}

// PEFTStrategies lists the supported peft_strategy values in display order.
var PEFTStrategies = []string{"lora", "prefix_tuning", "prompt_tuning", "p_tuning", "ada_lora", "ia3"}

func peftBase() Options {
	return Options{
		"base_model_name_or_path": nil,
		"revision":                nil,
		"peft_type":               nil,
		"task_type":               nil,
		"inference_mode":          false,
		"auto_mapping":            nil,
	}
}

func loraDefaults() Options {
	return Merge(peftBase(), Options{
		"r":                   8,
		"target_modules":      nil,
		"lora_alpha":          8,
		"lora_dropout":        0,
		"fan_in_fan_out":      false,
		"bias":                "none",
		"modules_to_save":     nil,
		"init_lora_weights":   true,
		"layers_to_transform": nil,
		"layers_pattern":      nil,
	})
}

func adaLoraDefaults() Options {
	return Merge(loraDefaults(), Options{
		"target_r":        8,
		"init_r":          12,
		"tinit":           0,
		"tfinal":          0,
		"deltaT":          1,
		"beta1":           0.85,
		"beta2":           0.85,
		"orth_reg_weight": 0.5,
		"total_step":      nil,
		"rank_pattern":    nil,
	})
}

// promptLearningDefaults is shared by the prompt, prefix and p-tuning strategies.
func promptLearningDefaults() Options {
	return Merge(peftBase(), Options{
		"num_virtual_tokens":         nil,
		"token_dim":                  nil,
		"num_transformer_submodules": nil,
		"num_attention_heads":        nil,
		"num_layers":                 nil,
	})
}

func promptTuningDefaults() Options {
	return Merge(promptLearningDefaults(), Options{
		"prompt_tuning_init":      "RANDOM",
		"prompt_tuning_init_text": nil,
		"tokenizer_name_or_path":  nil,
	})
}

func prefixTuningDefaults() Options {
	return Merge(promptLearningDefaults(), Options{
		"encoder_hidden_size": nil,
		"prefix_projection":   false,
	})
}

func pTuningDefaults() Options {
	return Merge(promptLearningDefaults(), Options{
		"encoder_reparameterization_type": "MLP",
		"encoder_hidden_size":             nil,
		"encoder_num_layers":              2,
		"encoder_dropout":                 0.0,
	})
}

func ia3Defaults() Options {
	return Merge(peftBase(), Options{
		"target_modules":      nil,
		"feedforward_modules": nil,
		"fan_in_fan_out":      false,
		"modules_to_save":     nil,
		"init_ia3_weights":    true,
	})
}

var peftDefaults = map[string]func() Options{
	"lora":          loraDefaults,
	"prefix_tuning": prefixTuningDefaults,
	"prompt_tuning": promptTuningDefaults,
	"p_tuning":      pTuningDefaults,
	"ada_lora":      adaLoraDefaults,
	"ia3":           ia3Defaults,
}

// PEFTDefaults returns a fresh copy of the default options for strategy.
func PEFTDefaults(strategy string) (Options, bool) {
	build, ok := peftDefaults[strategy]
	if !ok {
		return nil, false
	}
	return build(), true
}
